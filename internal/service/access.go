package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/skillmatrix-api/internal/models"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
	"github.com/noah-isme/skillmatrix-api/pkg/middleware/requestid"
)

// Role groups for each family of operations.
var (
	skillManagers    = []models.UserRole{models.RoleAdmin, models.RoleDCC}
	employeeManagers = []models.UserRole{models.RoleAdmin, models.RoleHR}
	certifiers       = []models.UserRole{models.RoleTrainer}
	assignmentOwners = []models.UserRole{models.RoleAdmin, models.RoleTrainer}
	userManagers     = []models.UserRole{models.RoleAdmin}
)

// authorize fails with UNAUTHORIZED when no actor is present and FORBIDDEN when
// the actor holds none of the allowed roles.
func authorize(actor *models.Actor, allowed ...models.UserRole) error {
	if actor == nil || actor.ID == "" {
		return appErrors.ErrUnauthorized
	}
	if !actor.HasRole(allowed...) {
		names := make([]string, len(allowed))
		for i, r := range allowed {
			names[i] = string(r)
		}
		return appErrors.Clone(appErrors.ErrForbidden, "requires role "+strings.Join(names, " or "))
	}
	return nil
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// auditEntry describes one audit trail write.
type auditEntry struct {
	Action     string
	Resource   string
	ResourceID string
	Details    string
	IP         string
	Values     interface{}
}

// recordAudit writes an audit entry for actor. Failures are logged and never
// fail the operation that already committed.
func recordAudit(ctx context.Context, recorder auditRecorder, logger *zap.Logger, actor *models.Actor, entry auditEntry) {
	if recorder == nil {
		return
	}
	log := &models.AuditLog{
		Action:    entry.Action,
		Resource:  entry.Resource,
		Details:   entry.Details,
		IPAddress: entry.IP,
	}
	if actor != nil && actor.ID != "" {
		id := actor.ID
		log.UserID = &id
	}
	if entry.ResourceID != "" {
		id := entry.ResourceID
		log.ResourceID = &id
	}
	if entry.Values != nil {
		payload, err := json.Marshal(entry.Values)
		if err == nil {
			log.NewValues = payload
		}
	}
	if err := recorder.CreateAuditLog(ctx, log); err != nil && logger != nil {
		logger.Warn("failed to record audit log",
			zap.String("action", entry.Action),
			zap.String("request_id", requestid.FromContext(ctx)),
			zap.Error(err))
	}
}

// FileUpload is an uploaded file handed to a core operation.
type FileUpload struct {
	Filename string
	Data     []byte
}

func (f *FileUpload) present() bool {
	return f != nil && len(f.Data) > 0
}

type fileStore interface {
	Save(ctx context.Context, suggestedName string, data []byte) (string, error)
	Delete(url string) error
}

// storeFile persists an upload and maps any failure to STORAGE_ERROR.
func storeFile(ctx context.Context, store fileStore, upload *FileUpload, what string) (*string, error) {
	if !upload.present() {
		return nil, nil
	}
	if store == nil {
		return nil, appErrors.Clone(appErrors.ErrStorage, "no file storage configured for "+what)
	}
	url, err := store.Save(ctx, upload.Filename, upload.Data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to store "+what)
	}
	return &url, nil
}

// discardFile removes a file stored for a write that did not commit. Failure
// only leaves an orphaned file behind, so it is logged and not returned.
func discardFile(store fileStore, url *string, logger *zap.Logger) {
	if store == nil || url == nil {
		return
	}
	if err := store.Delete(*url); err != nil && logger != nil {
		logger.Warn("failed to remove orphaned upload", zap.String("url", *url), zap.Error(err))
	}
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
