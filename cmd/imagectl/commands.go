package main

import (
	"fmt"
	"strings"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"

	imageclient "github.com/Skryldev/image-client"
	"github.com/Skryldev/image-client/adapters/decoder"
	"github.com/Skryldev/image-client/adapters/source"
	"github.com/Skryldev/image-client/core"
)

func newUploadCommand(a *app) *cobra.Command {
	var (
		id       string
		signed   bool
		meta     []string
		progress bool
	)
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a local image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metadata, err := parseMetadata(meta)
			if err != nil {
				return err
			}
			opts := core.UploadOptions{ID: id, RequireSignedURLs: signed, Metadata: metadata}
			if progress {
				errOut := cmd.ErrOrStderr()
				opts.OnProgress = func(f float64) { fmt.Fprintf(errOut, "\ruploading %3.0f%%", f*100) }
			}
			res := a.client.Upload(cmd.Context(), imageclient.FromFile(args[0]), opts)
			if progress {
				fmt.Fprintln(cmd.ErrOrStderr())
			}
			return emit(cmd.OutOrStdout(), a.v.GetString("output"), res, nil)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "custom image id")
	cmd.Flags().BoolVar(&signed, "signed", false, "require signed URLs")
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "metadata entry key=value (repeatable)")
	cmd.Flags().BoolVar(&progress, "progress", false, "print upload progress to stderr")
	return cmd
}

func newUploadURLCommand(a *app) *cobra.Command {
	var (
		id     string
		signed bool
		meta   []string
	)
	cmd := &cobra.Command{
		Use:   "upload-url <url>",
		Short: "Have the service fetch an image from a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metadata, err := parseMetadata(meta)
			if err != nil {
				return err
			}
			res := a.client.UploadFromURL(cmd.Context(), args[0], core.URLUploadOptions{
				ID: id, RequireSignedURLs: signed, Metadata: metadata,
			})
			return emit(cmd.OutOrStdout(), a.v.GetString("output"), res, nil)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "custom image id")
	cmd.Flags().BoolVar(&signed, "signed", false, "require signed URLs")
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "metadata entry key=value (repeatable)")
	return cmd
}

func newGetCommand(a *app) *cobra.Command {
	var variants bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := a.client.Get(cmd.Context(), args[0])
			var view func(core.RemoteImage) any
			if variants {
				view = func(img core.RemoteImage) any { return img.VariantMap() }
			}
			return emit(cmd.OutOrStdout(), a.v.GetString("output"), res, view)
		},
	}
	cmd.Flags().BoolVar(&variants, "variants", false, "print only the variant name to URL map")
	return cmd
}

func newListCommand(a *app) *cobra.Command {
	var (
		page, perPage int
		all           bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List images page by page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := a.v.GetString("output")
			if !all {
				return emit(cmd.OutOrStdout(), out, a.client.List(cmd.Context(), page, perPage), nil)
			}
			var images []core.RemoteImage
			for next, ok := page, true; ok; {
				p, err := a.client.List(cmd.Context(), next, perPage).Unwrap()
				if err != nil {
					return err
				}
				images = append(images, p.Images...)
				next, ok = p.NextPage()
			}
			return render(cmd.OutOrStdout(), out, images)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", 20, "images per page (1-100)")
	cmd.Flags().BoolVar(&all, "all", false, "follow pages until the last one")
	return cmd
}

func newUpdateCommand(a *app) *cobra.Command {
	var (
		signed    bool
		meta      []string
		clearMeta bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change signed-URL requirement or metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts core.UpdateOptions
			if cmd.Flags().Changed("signed") {
				opts.RequireSignedURLs = &signed
			}
			if len(meta) > 0 || clearMeta {
				metadata, err := parseMetadata(meta)
				if err != nil {
					return err
				}
				if metadata == nil {
					metadata = map[string]string{}
				}
				opts.Metadata = metadata
			}
			return emit(cmd.OutOrStdout(), a.v.GetString("output"), a.client.Update(cmd.Context(), args[0], opts), nil)
		},
	}
	cmd.Flags().BoolVar(&signed, "signed", false, "require signed URLs")
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "metadata entry key=value (repeatable)")
	cmd.Flags().BoolVar(&clearMeta, "clear-meta", false, "replace metadata with an empty object")
	return cmd
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.client.Delete(cmd.Context(), args[0]).Unwrap(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

// usageView is the stats command's output shape.
type usageView struct {
	Current        int64   `json:"current" yaml:"current"`
	Allowed        int64   `json:"allowed" yaml:"allowed"`
	Remaining      int64   `json:"remaining" yaml:"remaining"`
	PercentageUsed float64 `json:"percentage_used" yaml:"percentage_used"`
}

func newStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show image quota usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return emit(cmd.OutOrStdout(), a.v.GetString("output"), a.client.Usage(cmd.Context()), func(u core.UsageStats) any {
				return usageView{
					Current:        u.Current,
					Allowed:        u.Allowed,
					Remaining:      u.Remaining(),
					PercentageUsed: u.PercentageUsed(),
				}
			})
		},
	}
}

// inspectView is the inspect command's output shape.
type inspectView struct {
	File      string `json:"file" yaml:"file"`
	MediaType string `json:"media_type" yaml:"media_type"`
	Format    string `json:"format" yaml:"format"`
	Width     int    `json:"width" yaml:"width"`
	Height    int    `json:"height" yaml:"height"`
	Size      string `json:"size" yaml:"size"`
}

// newInspectCommand decodes a local file without contacting the service.
func newInspectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "inspect <file>",
		Short:       "Decode a local image and report its dimensions",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"offline": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			src := source.FromFile(args[0])
			data, err := src.Bytes(cmd.Context())
			if err != nil {
				return err
			}
			reg := core.NewRegistry()
			decoder.RegisterDefaults(reg)
			meta, err := core.Inspect(cmd.Context(), reg, data)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.v.GetString("output"), inspectView{
				File:      args[0],
				MediaType: src.MediaType(),
				Format:    string(meta.Format),
				Width:     meta.Width,
				Height:    meta.Height,
				Size:      units.HumanSize(float64(meta.SizeBytes)),
			})
		},
	}
}

// parseMetadata turns key=value pairs into a map; nil when pairs is empty.
func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("metadata %q must be key=value", p)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}
