package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/craftkart/identity/internal/config"
	"github.com/craftkart/identity/internal/logging"
	"github.com/craftkart/identity/internal/models"
	"github.com/craftkart/identity/internal/observability"
)

// UserService manages accounts in the users collection.
type UserService struct {
	logger *logging.SafeLogger
}

// Users is the global user service instance
var Users *UserService

// InitUserService initializes the global user service
func InitUserService() {
	Users = &UserService{
		logger: logging.Logger.With(zap.String("service", "users")),
	}
}

func (s *UserService) collection() *mongo.Collection {
	return config.MongoDB.Collection(config.AppConfig.UsersCollection)
}

func identifierField(channel models.Channel) string {
	if channel == models.ChannelEmail {
		return "email"
	}
	return "phone_number"
}

// FindByIdentifier looks an account up by its normalized email or phone
// number. Missing accounts return models.ErrAccountNotFound.
func (s *UserService) FindByIdentifier(ctx context.Context, channel models.Channel, identifier string) (*models.User, error) {
	var user models.User
	err := s.collection().FindOne(ctx, bson.M{identifierField(channel): identifier}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		s.logger.Error("failed to look up user", zap.Error(err))
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return &user, nil
}

// FindByID looks an account up by its id.
func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return &user, nil
}

// Create registers a new account for a verified identifier. The actor the
// registration came through decides the role. A duplicate identifier maps
// to models.ErrAlreadyRegistered via the unique index.
func (s *UserService) Create(ctx context.Context, actor models.ActorKind, channel models.Channel, identifier string, req *models.RegisterRequest) (*models.User, error) {
	now := time.Now()
	user := &models.User{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Gender:    req.Gender,
		Role:      actor.Role(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if channel == models.ChannelEmail {
		user.Email = identifier
	} else {
		user.PhoneNumber = identifier
	}

	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if _, err := s.collection().InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, models.ErrAlreadyRegistered
		}
		s.logger.Error("failed to create user", zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created",
		zap.String("role", user.Role),
		zap.String("identifier", observability.MaskIdentifier(identifier)))
	return user, nil
}

// VerifyPassword checks a password against the account's bcrypt hash.
// Accounts without a password (phone-first signups) always fail.
func (s *UserService) VerifyPassword(user *models.User, password string) error {
	if user.PasswordHash == "" {
		return models.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.ErrInvalidCredentials
	}
	return nil
}
