package utils

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/craftkart/identity/internal/config"
	"github.com/craftkart/identity/internal/logging"
	"github.com/craftkart/identity/internal/observability"
)

// AuditLog is one auth event in the audit collection.
type AuditLog struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Actor      string             `bson:"actor" json:"actor"`
	Identifier string             `bson:"identifier" json:"identifier"`
	Action     string             `bson:"action" json:"action"`
	IPAddress  string             `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	UserAgent  string             `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	RequestID  string             `bson:"request_id,omitempty" json:"request_id,omitempty"`
	Timestamp  time.Time          `bson:"timestamp" json:"timestamp"`
	Metadata   map[string]string  `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// Audit actions
const (
	AuditActionCodeSent     = "CODE_SENT"
	AuditActionCodeVerified = "CODE_VERIFIED"
	AuditActionCodeRejected = "CODE_REJECTED"
	AuditActionSignup       = "SIGNUP"
	AuditActionLogin        = "LOGIN"
	AuditActionLogout       = "LOGOUT"
)

// AuditContext carries request-scoped fields into audit entries.
type AuditContext struct {
	Actor      string
	Identifier string
	IPAddress  string
	UserAgent  string
	RequestID  string
}

// GetAuditContextFromGin builds an AuditContext from a request. The
// identifier is masked before it is stored.
func GetAuditContextFromGin(c *gin.Context, actor, identifier string) AuditContext {
	return AuditContext{
		Actor:      actor,
		Identifier: observability.MaskIdentifier(identifier),
		IPAddress:  c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
		RequestID:  c.GetString("RequestID"),
	}
}

// auditWorker persists audit entries asynchronously so the request path
// never waits on the audit collection.
type auditWorker struct {
	entries chan AuditLog
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

var (
	worker     *auditWorker
	workerOnce sync.Once
)

// InitAuditWorker starts the background audit workers.
func InitAuditWorker(workers, bufferSize int) {
	workerOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		worker = &auditWorker{
			entries: make(chan AuditLog, bufferSize),
			cancel:  cancel,
		}
		for i := 0; i < workers; i++ {
			worker.wg.Add(1)
			go worker.run(ctx)
		}
		logging.Logger.Info("audit worker started",
			zap.Int("workers", workers),
			zap.Int("buffer_size", bufferSize))
	})
}

// ShutdownAuditWorker stops the workers and waits for the queue to drain.
func ShutdownAuditWorker() {
	if worker == nil {
		return
	}
	close(worker.entries)
	worker.wg.Wait()
	worker.cancel()
}

func (w *auditWorker) run(ctx context.Context) {
	defer w.wg.Done()
	for entry := range w.entries {
		insertCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := config.MongoDB.Collection(config.AppConfig.AuditCollection).InsertOne(insertCtx, entry)
		cancel()
		if err != nil {
			logging.Logger.Warn("failed to persist audit entry",
				zap.String("action", entry.Action),
				zap.Error(err))
		}
	}
}

// LogAuthEvent enqueues an auth event for persistence. Events are dropped
// with a warning when the queue is full or the worker is not running.
func LogAuthEvent(auditCtx AuditContext, action string, metadata map[string]string) {
	entry := AuditLog{
		Actor:      auditCtx.Actor,
		Identifier: auditCtx.Identifier,
		Action:     action,
		IPAddress:  auditCtx.IPAddress,
		UserAgent:  auditCtx.UserAgent,
		RequestID:  auditCtx.RequestID,
		Timestamp:  time.Now(),
		Metadata:   metadata,
	}

	if worker == nil {
		logging.Logger.Debug("audit worker not running, dropping event",
			zap.String("action", action))
		return
	}

	select {
	case worker.entries <- entry:
	default:
		logging.Logger.Warn("audit queue full, dropping event",
			zap.String("action", action))
	}
}
