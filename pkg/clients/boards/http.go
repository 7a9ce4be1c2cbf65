package boards

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HTTPRepository fetches board and image metadata over plain HTTP(S),
// the same constructor shape as the teacher's weather.OpenMeteoClient.
type HTTPRepository struct {
	baseURL    string
	bearer     string
	httpClient *http.Client
}

// NewHTTPRepository creates a repository against baseURL.
func NewHTTPRepository(baseURL, bearer string, httpClient *http.Client) *HTTPRepository {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPRepository{baseURL: baseURL, bearer: bearer, httpClient: httpClient}
}

func (r *HTTPRepository) GetBoard(ctx context.Context, id string) (*Board, error) {
	var board Board
	if err := r.getJSON(ctx, "/api/v1/boards/"+id, &board); err != nil {
		return nil, fmt.Errorf("boards: get board %s: %w", id, err)
	}
	return &board, nil
}

func (r *HTTPRepository) ListImages(ctx context.Context, boardID string) ([]ImageDTO, error) {
	var images []ImageDTO
	if err := r.getJSON(ctx, "/api/v1/boards/"+boardID+"/images", &images); err != nil {
		return nil, fmt.Errorf("boards: list images for board %s: %w", boardID, err)
	}
	return images, nil
}

func (r *HTTPRepository) GetImageDTO(ctx context.Context, name string) (*ImageDTO, error) {
	var dto ImageDTO
	if err := r.getJSON(ctx, "/api/v1/images/"+name, &dto); err != nil {
		if isNotFound(err) {
			return nil, NotFound(name)
		}
		return nil, fmt.Errorf("boards: get image %s: %w", name, err)
	}
	return &dto, nil
}

func (r *HTTPRepository) DownloadImage(ctx context.Context, name string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/v1/images/"+name+"/full", nil)
	if err != nil {
		return nil, fmt.Errorf("boards: build download request: %w", err)
	}
	r.authorize(req)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("boards: download image %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, NotFound(name)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("boards: download image %s returned %d", name, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (r *HTTPRepository) authorize(req *http.Request) {
	if r.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+r.bearer)
	}
}

func (r *HTTPRepository) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	r.authorize(req)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return notFoundErr{}
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, out)
}

type notFoundErr struct{}

func (notFoundErr) Error() string { return "not found" }

func isNotFound(err error) bool {
	_, ok := err.(notFoundErr)
	return ok
}
