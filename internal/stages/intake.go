package stages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/vitrine-studio/vitrine/internal/artifact"
	"github.com/vitrine-studio/vitrine/internal/imaging"
	"github.com/vitrine-studio/vitrine/internal/orchestrator"
	"github.com/vitrine-studio/vitrine/internal/session"
)

// aestheticGuideArtifact is the fixed artifact name for the design manual
// image. Downstream stages reference it by this exact name.
const aestheticGuideArtifact = "aesthetic_guide"

// maxGuideDim caps the stored guide size; model inputs reject very large
// images.
const maxGuideDim = 1536

// OrderInfo is the order service response.
type OrderInfo struct {
	Metadata struct {
		DesignerComments string `json:"designer_comments"`
		Slug             string `json:"slug"`
		ProductType      string `json:"product_type"`
		Occasion         string `json:"occasion"`
		DesignManual     string `json:"design_manual"`
	} `json:"metadata"`
	OrderData json.RawMessage `json:"orderData"`
}

// OrderClient fetches orders from the order service.
type OrderClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func (c *OrderClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// FetchOrder retrieves one order by ID.
func (c *OrderClient) FetchOrder(ctx context.Context, orderID string) (*OrderInfo, error) {
	u := fmt.Sprintf("%s/getOrder?orderId=%s", c.BaseURL, url.QueryEscape(orderID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.APIKey)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch order %s: %w", orderID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch order %s: HTTP %d: %s", orderID, resp.StatusCode, body)
	}

	var info OrderInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode order %s: %w", orderID, err)
	}
	return &info, nil
}

// FetchGuide downloads the design manual image.
func (c *OrderClient) FetchGuide(ctx context.Context, guideURL string) (data []byte, mime string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, guideURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build guide request: %w", err)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch guide: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch guide: HTTP %d", resp.StatusCode)
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read guide: %w", err)
	}
	mime = resp.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/jpeg"
	}
	return data, mime, nil
}

// Intake is stage 0: it fetches the order, wraps its metadata and payload
// into the combined data payload, and downloads the aesthetic guide.
type Intake struct {
	Orders *OrderClient
	Store  artifact.Store
	Log    *zap.Logger
}

var _ orchestrator.StageExecutor = (*Intake)(nil)

func (s *Intake) Execute(ctx context.Context, run *session.State) (*orchestrator.StageResult, error) {
	orderID, err := run.String(session.KeyOrderID)
	if err != nil {
		return nil, fmt.Errorf("intake: %w", err)
	}

	info, err := s.Orders.FetchOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("intake: %w", err)
	}

	// Metadata rides inside the payload; the information architecture stage
	// promotes it into the session when it splits metadata from data. Empty
	// fields are omitted so downstream fallbacks see an absent key.
	payload := map[string]any{
		"data": info.OrderData,
	}
	for key, val := range map[string]string{
		"theme":        info.Metadata.DesignerComments,
		"slug":         info.Metadata.Slug,
		"product_type": info.Metadata.ProductType,
		"occasion":     info.Metadata.Occasion,
	} {
		if val != "" {
			payload[key] = val
		}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("intake: marshal payload: %w", err)
	}

	if err := run.Set(ownerIntake, session.KeyPayload, raw); err != nil {
		return nil, fmt.Errorf("intake: %w", err)
	}

	if info.Metadata.Slug != "" {
		err := s.Store.SetRunSlug(ctx, run.RunID(), info.Metadata.Slug)
		if err != nil && !errors.Is(err, artifact.ErrNotFound) {
			return nil, fmt.Errorf("intake: %w", err)
		}
	}

	artifacts := []string{}
	if info.Metadata.DesignManual != "" {
		guide, mime, err := s.Orders.FetchGuide(ctx, info.Metadata.DesignManual)
		if err != nil {
			// The guide improves asset styling but the pipeline works
			// without it.
			s.log().Warn("aesthetic guide download failed",
				zap.String("url", info.Metadata.DesignManual), zap.Error(err))
		} else {
			if w, h, err := imaging.Dimensions(guide); err == nil && (w > maxGuideDim || h > maxGuideDim) {
				if scaled, err := imaging.Fit(guide, maxGuideDim); err == nil {
					guide, mime = scaled, "image/png"
				}
			}
			if err := putArtifact(ctx, s.Store, run, orchestrator.StageOrderIntake,
				aestheticGuideArtifact, mime, guide); err != nil {
				return nil, fmt.Errorf("intake: %w", err)
			}
			if err := run.Set(ownerIntake, session.KeyAestheticGuide, aestheticGuideArtifact); err != nil {
				return nil, fmt.Errorf("intake: %w", err)
			}
			artifacts = append(artifacts, aestheticGuideArtifact)
		}
	}

	result := map[string]any{
		"success":  true,
		"order_id": orderID,
		"slug":     info.Metadata.Slug,
	}
	if err := run.Set(ownerIntake, session.KeyOrderResult, result); err != nil {
		return nil, fmt.Errorf("intake: %w", err)
	}

	return &orchestrator.StageResult{
		Stage:     orchestrator.StageOrderIntake,
		Artifacts: artifacts,
		Detail:    fmt.Sprintf("order %s (%s)", orderID, info.Metadata.Slug),
	}, nil
}

func (s *Intake) log() *zap.Logger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop()
}
