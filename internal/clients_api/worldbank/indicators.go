package worldbank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"vizboard/internal/infra/log"

	"github.com/araddon/dateparse"
	"go.uber.org/zap"
)

// Observation is one (country, date, indicator) value.
// Value is NaN when the API reports null.
type Observation struct {
	IndicatorID   string
	IndicatorName string
	CountryID     string
	Country       string // plain name unwrapped from the nested descriptor
	CountryISO3   string
	Date          string
	Year          int
	Value         float64
}

// APIError is returned when the API answers with a message envelope instead of data,
// for example an unknown indicator code.
type APIError struct {
	ID      string
	Key     string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("world bank api error %s (%s): %s", e.ID, e.Key, e.Message)
}

type descriptor struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

type rawObservation struct {
	Indicator   descriptor `json:"indicator"`
	Country     descriptor `json:"country"`
	CountryISO3 string     `json:"countryiso3code"`
	Date        string     `json:"date"`
	Value       *float64   `json:"value"`
}

// flexInt accepts both 12 and "12"; the API is not consistent about it
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer %s: %w", string(b), err)
	}
	*f = flexInt(n)
	return nil
}

// PageInfo is the header element of every paged response
type PageInfo struct {
	Page    flexInt `json:"page"`
	Pages   flexInt `json:"pages"`
	PerPage flexInt `json:"per_page"`
	Total   flexInt `json:"total"`
}

type messageEnvelope struct {
	Message []struct {
		ID    string `json:"id"`
		Key   string `json:"key"`
		Value string `json:"value"`
	} `json:"message"`
}

// GetIndicator fetches every page of one indicator for the given ISO3 country codes
// over [startYear, endYear].
func (c *Client) GetIndicator(ctx context.Context, code string, countries []string, startYear, endYear int) ([]Observation, error) {
	if code == "" {
		return nil, fmt.Errorf("indicator code is empty")
	}
	if len(countries) == 0 {
		return nil, fmt.Errorf("no countries requested")
	}

	escaped := make([]string, len(countries))
	for i, country := range countries {
		escaped[i] = url.PathEscape(country)
	}
	// ";" separates countries and must stay literal
	endpoint := fmt.Sprintf("/country/%s/indicator/%s", strings.Join(escaped, ";"), url.PathEscape(code))

	var observations []Observation
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("format", "json")
		query.Set("date", fmt.Sprintf("%d:%d", startYear, endYear))
		query.Set("per_page", strconv.Itoa(c.perPage))
		query.Set("page", strconv.Itoa(page))

		body, err := c.get(ctx, endpoint, query)
		if err != nil {
			return nil, err
		}

		meta, rows, err := ParseIndicatorPage(body)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				log.LogJSON(body, "World Bank message")
			}
			return nil, fmt.Errorf("indicator %s page %d: %w", code, page, err)
		}
		observations = append(observations, rows...)

		if int(meta.Pages) <= page {
			break
		}
	}

	log.LogDebug("Indicator fetched",
		zap.String("indicator", code),
		zap.Int("observations", len(observations)))
	return observations, nil
}

// ParseIndicatorPage decodes one response body of the indicator endpoint
func ParseIndicatorPage(body []byte) (PageInfo, []Observation, error) {
	var envelope []json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return PageInfo{}, nil, fmt.Errorf("decode response: %w", err)
	}

	if len(envelope) == 0 {
		return PageInfo{}, nil, fmt.Errorf("empty response")
	}

	if len(envelope) == 1 {
		var msg messageEnvelope
		if err := json.Unmarshal(envelope[0], &msg); err == nil && len(msg.Message) > 0 {
			m := msg.Message[0]
			return PageInfo{}, nil, &APIError{ID: m.ID, Key: m.Key, Message: m.Value}
		}
		return PageInfo{}, nil, fmt.Errorf("unexpected response shape")
	}

	var meta PageInfo
	if err := json.Unmarshal(envelope[0], &meta); err != nil {
		return PageInfo{}, nil, fmt.Errorf("decode page header: %w", err)
	}

	var raw []rawObservation
	if err := json.Unmarshal(envelope[1], &raw); err != nil {
		return PageInfo{}, nil, fmt.Errorf("decode observations: %w", err)
	}

	observations := make([]Observation, 0, len(raw))
	for _, r := range raw {
		year, err := ParseYear(r.Date)
		if err != nil {
			log.LogWarn("Skipping observation with unparseable date",
				zap.String("indicator", r.Indicator.ID),
				zap.String("country", r.Country.Value),
				zap.String("date", r.Date))
			continue
		}

		value := math.NaN()
		if r.Value != nil {
			value = *r.Value
		}

		observations = append(observations, Observation{
			IndicatorID:   r.Indicator.ID,
			IndicatorName: r.Indicator.Value,
			CountryID:     r.Country.ID,
			Country:       r.Country.Value,
			CountryISO3:   r.CountryISO3,
			Date:          r.Date,
			Year:          year,
			Value:         value,
		})
	}
	return meta, observations, nil
}

// ParseYear extracts the calendar year from an API date: "2021", "2021M04", "2021Q2".
func ParseYear(date string) (int, error) {
	date = strings.TrimSpace(date)
	if t, err := dateparse.ParseAny(date); err == nil {
		return t.Year(), nil
	}
	// Monthly and quarterly series are not understood by dateparse
	if len(date) >= 4 {
		if year, err := strconv.Atoi(date[:4]); err == nil {
			return year, nil
		}
	}
	return 0, fmt.Errorf("unrecognized date %q", date)
}
