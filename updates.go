package meili

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/kailas-cloud/meili/internal/transport/rest"
)

// GetUpdateStatus returns the state of one update. It is never cached.
func (i *Index) GetUpdateStatus(ctx context.Context, updateID int64) (UpdateStatus, error) {
	path, err := i.path("updates", strconv.FormatInt(updateID, 10))
	if err != nil {
		return UpdateStatus{}, fmt.Errorf("get update %d: %w", updateID, err)
	}
	var out UpdateStatus
	err = i.caller.do(ctx, "get_update_status", rest.Request{
		Method: http.MethodGet,
		Path:   path,
	}, &out)
	if err != nil {
		return UpdateStatus{}, fmt.Errorf("get update %d: %w", updateID, err)
	}
	return out, nil
}

// GetAllUpdateStatus returns the state of every update of the index.
func (i *Index) GetAllUpdateStatus(ctx context.Context) ([]UpdateStatus, error) {
	path, err := i.path("updates")
	if err != nil {
		return nil, fmt.Errorf("get updates %q: %w", i.uid, err)
	}
	var out []UpdateStatus
	err = i.caller.do(ctx, "get_all_update_status", rest.Request{
		Method: http.MethodGet,
		Path:   path,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("get updates %q: %w", i.uid, err)
	}
	return out, nil
}
