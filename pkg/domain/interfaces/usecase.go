package interfaces

import (
	"context"

	"github.com/m-mizutani/apkfetch/pkg/domain/model"
)

// FetchUseCase defines the fetch pipeline: list, select, download
type FetchUseCase interface {
	// Fetch selects one release for input and downloads its binary
	Fetch(ctx context.Context, input *model.FetchInput) (*model.FetchResult, error)
}
