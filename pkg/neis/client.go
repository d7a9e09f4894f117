package neis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/somang-dev/classcoin-api/pkg/config"
	appErrors "github.com/somang-dev/classcoin-api/pkg/errors"
)

const (
	successCode = "INFO-000"
	noDataCode  = "INFO-200"
)

// Client queries the NEIS open API for school directory lookups.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient constructs a NEIS client from configuration.
func NewClient(cfg config.NeisConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type resultHead struct {
	Result *struct {
		Code    string `json:"CODE"`
		Message string `json:"MESSAGE"`
	} `json:"RESULT"`
}

type schoolInfoRow struct {
	SchoolName string `json:"SCHUL_NM"`
}

type schoolInfoSection struct {
	Head []resultHead    `json:"head"`
	Row  []schoolInfoRow `json:"row"`
}

type schoolInfoResponse struct {
	SchoolInfo []schoolInfoSection `json:"schoolInfo"`
}

// ValidateSchool confirms the (office code, school code) pair exists and
// returns the canonical school name.
func (c *Client) ValidateSchool(ctx context.Context, officeCode, schoolCode string) (string, error) {
	if c.apiKey == "" {
		return "", appErrors.Clone(appErrors.ErrUnavailable, "NEIS API key is not configured")
	}

	query := url.Values{}
	query.Set("KEY", c.apiKey)
	query.Set("Type", "json")
	query.Set("pIndex", "1")
	query.Set("pSize", "10")
	query.Set("ATPT_OFCDC_SC_CODE", officeCode)
	query.Set("SD_SCHUL_CODE", schoolCode)

	endpoint := fmt.Sprintf("%s/schoolInfo?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build NEIS request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "NEIS lookup failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("NEIS returned non-200", zap.Int("status", resp.StatusCode))
		return "", appErrors.Clone(appErrors.ErrUnavailable, "NEIS lookup failed")
	}

	var payload schoolInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "failed to decode NEIS response")
	}

	for _, section := range payload.SchoolInfo {
		for _, head := range section.Head {
			if head.Result == nil {
				continue
			}
			switch head.Result.Code {
			case successCode:
			case noDataCode:
				return "", appErrors.Clone(appErrors.ErrValidation, "school not found for the given codes")
			default:
				return "", appErrors.Clone(appErrors.ErrValidation, head.Result.Message)
			}
		}
	}

	for _, section := range payload.SchoolInfo {
		if len(section.Row) > 0 {
			return section.Row[0].SchoolName, nil
		}
	}

	return "", appErrors.Clone(appErrors.ErrValidation, "school not found for the given codes")
}
