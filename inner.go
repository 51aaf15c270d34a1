package imageclient

import "github.com/Skryldev/image-client/core"

// Core returns the wrapped core.Client for calls the facade does not
// re-export, such as ListDefault and Config.
func (c *Client) Core() *core.Client { return c.inner }
