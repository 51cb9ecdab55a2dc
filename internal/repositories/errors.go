package repositories

import (
	"errors"

	"github.com/anonto42/campus-p2p/backend/internal/models"
	"go.mongodb.org/mongo-driver/mongo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// translate maps backend errors onto the application taxonomy.
func translate(op, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	if models.ErrorCode(err) != "" {
		return err
	}
	if errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	switch status.Code(err) {
	case codes.NotFound:
		return models.NewNotFoundError(resource, id)
	case codes.PermissionDenied:
		return &models.AppError{Code: models.CodePermissionDenied, Message: "Permission denied", Err: err}
	}
	return models.NewPersistenceError(op, err)
}
