// Package handlers implements the HTTP API endpoints.
package handlers

import (
	"github.com/inkwell-app/backend/internal/auth"
	"github.com/inkwell-app/backend/internal/realtime"
	"github.com/inkwell-app/backend/internal/storage"
)

// Handlers holds the collaborators shared by the HTTP endpoints.
// The presence directory is injected here so mutation handlers can push
// notifications; it is never constructed inside a handler.
type Handlers struct {
	authService *auth.Service
	uploader    storage.ImageUploader
	directory   *realtime.Directory
}

// New creates the handler set
func New(authService *auth.Service, uploader storage.ImageUploader, directory *realtime.Directory) *Handlers {
	return &Handlers{
		authService: authService,
		uploader:    uploader,
		directory:   directory,
	}
}

// Pagination caps
const (
	defaultPageSize = 20
	maxPageSize     = 100
)
