package epic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	pkgerrors "github.com/handiism/epic-downloader/internal/errors"
	"github.com/handiism/epic-downloader/internal/logger"
	"github.com/handiism/epic-downloader/internal/model"
)

var (
	errNoDates          = errors.New("available-dates list is empty")
	errMalformedPayload = errors.New("available-dates payload is not a list of strings")
)

// Getter fetches a URL and returns its body.
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// APIConfig locates the metadata API.
type APIConfig struct {
	// BaseURL is the API root, e.g. "https://epic.gsfc.nasa.gov/api".
	BaseURL string

	// Collection is the image collection, "natural" by default.
	Collection string

	// APIKey is sent as the api_key query parameter.
	APIKey string
}

func (c APIConfig) endpoint(segments ...string) string {
	collection := c.Collection
	if collection == "" {
		collection = model.CollectionNatural
	}

	escaped := make([]string, 0, len(segments)+1)
	escaped = append(escaped, url.PathEscape(collection))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}

	values := url.Values{}
	values.Set("api_key", c.APIKey)

	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.Join(escaped, "/") + "?" + values.Encode()
}

// AvailableURL returns the available-dates endpoint.
func (c APIConfig) AvailableURL() string {
	return c.endpoint("available")
}

// DateURL returns the image listing endpoint for date.
func (c APIConfig) DateURL(date model.Date) string {
	return c.endpoint("date", date.String())
}

// Resolver determines the date a run operates on.
type Resolver struct {
	client Getter
	cfg    APIConfig
}

// NewResolver creates a Resolver.
func NewResolver(client Getter, cfg APIConfig) *Resolver {
	return &Resolver{client: client, cfg: cfg}
}

// Resolve returns requested as a Date if it is set, or the most recent
// available date otherwise.
//
// Every failure is classified as ErrResolution.
func (r *Resolver) Resolve(ctx context.Context, requested string) (model.Date, error) {
	if requested != "" {
		date, err := model.ParseDate(requested)
		if err != nil {
			return model.Date{}, pkgerrors.Classify(pkgerrors.ErrResolution, err)
		}
		return date, nil
	}

	body, err := r.client.Get(ctx, r.cfg.AvailableURL())
	if err != nil {
		return model.Date{}, pkgerrors.Classify(pkgerrors.ErrResolution, err)
	}

	date, err := latestDate(body)
	if err != nil {
		return model.Date{}, pkgerrors.Classify(pkgerrors.ErrResolution, err)
	}

	logger.Debug("Resolved latest available date", logger.Fields{"date": date.String()})
	return date, nil
}

// latestDate returns the last entry of an available-dates payload.
func latestDate(body []byte) (model.Date, error) {
	var dates []string
	if err := json.Unmarshal(body, &dates); err != nil {
		return model.Date{}, fmt.Errorf("%w: %v", errMalformedPayload, err)
	}
	if dates == nil {
		return model.Date{}, errMalformedPayload
	}
	if len(dates) == 0 {
		return model.Date{}, errNoDates
	}

	return model.ParseDate(strings.TrimSpace(dates[len(dates)-1]))
}
