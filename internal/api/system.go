package api

import (
	"context"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/JonasPHenriksen/Ollama-Web-Chat/internal/errors"
	"github.com/JonasPHenriksen/Ollama-Web-Chat/internal/models"
)

// VRAM returns the GPU memory telemetry.
func (c *Client) VRAM(ctx context.Context) (models.VRAMUsage, error) {
	body, err := c.call(ctx, fhttp.MethodGet, EndpointVRAM)
	if err != nil {
		return models.VRAMUsage{}, err
	}

	result := gjson.ParseBytes(body)
	used, total := result.Get(PathVRAMUsed), result.Get(PathVRAMTotal)
	if !used.Exists() || !total.Exists() {
		return models.VRAMUsage{}, apierrors.NewParseError("missing VRAM fields", EndpointVRAM)
	}
	return models.VRAMUsage{UsedMB: used.Int(), TotalMB: total.Int()}, nil
}

// Shutdown asks the backend host to power off.
func (c *Client) Shutdown(ctx context.Context) error {
	_, err := c.call(ctx, fhttp.MethodPost, EndpointShutdown)
	return err
}
