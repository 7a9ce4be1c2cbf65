// Package boards is the board/asset collaborator (§6): used exclusively
// for post-submission retrieval, never during discovery or submission.
package boards

import (
	"context"

	"workflow-sdk/pkg/workflowerr"
)

// Board describes a target/source board for generated images.
type Board struct {
	ID   string `json:"board_id"`
	Name string `json:"board_name"`
}

// ImageDTO is the server's metadata record for one image asset.
type ImageDTO struct {
	Name      string `json:"image_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	BoardID   string `json:"board_id"`
	CreatedAt string `json:"created_at"`
}

// Repository is satisfied by the production HTTP client and by a fake
// in tests.
type Repository interface {
	GetBoard(ctx context.Context, id string) (*Board, error)
	ListImages(ctx context.Context, boardID string) ([]ImageDTO, error)
	GetImageDTO(ctx context.Context, name string) (*ImageDTO, error)
	DownloadImage(ctx context.Context, name string) ([]byte, error)
}

// NotFound wraps workflowerr.AssetNotFoundError for repository
// implementations to return on a 404.
func NotFound(name string) error {
	return &workflowerr.AssetNotFoundError{Name: name}
}
