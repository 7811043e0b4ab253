package msgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

// pageSize is the $top value for calendar view requests.
const pageSize = 100

// Client calls the Microsoft Graph calendar API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient returns a Client sending requests through httpClient, which is
// expected to add authorisation (see Authenticator.HTTPClient).
func NewClient(httpClient *http.Client) *Client {
	return &Client{httpClient: httpClient, baseURL: graphBaseURL}
}

// CalendarEvent is the subset of a Graph event that sync uses.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	BodyPreview string    `json:"bodyPreview"`
	IsAllDay    bool      `json:"isAllDay"`
	IsCancelled bool      `json:"isCancelled"`
	Sensitivity string    `json:"sensitivity"` // normal, personal, private, confidential
	ShowAs      string    `json:"showAs"`      // free, tentative, busy, oof, workingElsewhere, unknown
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
	Location    struct {
		DisplayName string `json:"displayName"`
	} `json:"location"`
}

// EventTime is a Graph dateTimeTimeZone value.
type EventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type eventPage struct {
	Value    []CalendarEvent `json:"value"`
	NextLink string          `json:"@odata.nextLink"`
}

// APIError is a non-200 answer from Graph.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("graph API error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("graph API error %d (%s): %s", e.Status, e.Code, e.Message)
}

// GetCalendarView returns every event overlapping [from, to), following
// result pages. With a non-empty IANA timezone, event times come back in
// that zone; otherwise in UTC.
func (c *Client) GetCalendarView(ctx context.Context, from, to time.Time, timezone string) ([]CalendarEvent, error) {
	q := url.Values{}
	q.Set("startDateTime", from.UTC().Format(time.RFC3339))
	q.Set("endDateTime", to.UTC().Format(time.RFC3339))
	q.Set("$top", fmt.Sprint(pageSize))
	next := c.baseURL + "/me/calendarView?" + q.Encode()

	var events []CalendarEvent
	for next != "" {
		page, err := c.getPage(ctx, next, timezone)
		if err != nil {
			return nil, err
		}
		events = append(events, page.Value...)
		next = page.NextLink
	}
	return events, nil
}

func (c *Client) getPage(ctx context.Context, pageURL, timezone string) (eventPage, error) {
	var page eventPage

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return page, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if timezone != "" {
		req.Header.Set("Prefer", fmt.Sprintf("outlook.timezone=%q", timezone))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return page, fmt.Errorf("graph API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return page, decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return page, fmt.Errorf("decoding graph response: %w", err)
	}
	return page, nil
}

// decodeAPIError reads Graph's {"error":{"code","message"}} body, falling
// back to the raw text.
func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{Status: resp.StatusCode}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Code != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	} else {
		apiErr.Message = string(body)
	}
	return apiErr
}
