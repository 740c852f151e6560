package config

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.uber.org/zap"

	"github.com/craftkart/identity/internal/logging"
	"github.com/craftkart/identity/internal/redisclient"
)

var (
	// MongoDB client
	MongoDB *mongo.Database
	// Redis client
	Redis *redisclient.Client
)

// InitMongoDB initializes the MongoDB connection
func InitMongoDB() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(AppConfig.MongoURI).
		SetMonitor(otelmongo.NewMonitor()).
		SetMaxPoolSize(100).
		SetMinPoolSize(10).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		log.Fatal(err)
	}

	// Ping the database
	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		log.Fatal(err)
	}

	MongoDB = client.Database(AppConfig.MongoDatabase)

	if err := ensureIndexes(); err != nil {
		logging.Logger.Error("failed to ensure indexes on startup", zap.Error(err))
	}

	logging.Logger.Info("connected to MongoDB",
		zap.String("uri", maskMongoURI(AppConfig.MongoURI)),
		zap.String("database", AppConfig.MongoDatabase),
	)
}

// InitRedis initializes the Redis connection. A comma-separated
// REDIS_URI selects cluster mode.
func InitRedis() {
	addrs := redisAddrs(AppConfig.RedisURI)

	if len(addrs) > 1 {
		Redis = redisclient.NewClusterClient(redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        addrs,
			Password:     AppConfig.RedisPassword,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 5,
		}))
	} else {
		Redis = redisclient.NewClient(redis.NewClient(&redis.Options{
			Addr:         addrs[0],
			Password:     AppConfig.RedisPassword,
			DB:           AppConfig.RedisDB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 5,
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := Redis.Ping(ctx).Err(); err != nil {
		logging.Logger.Error("failed to connect to Redis",
			zap.String("uri", AppConfig.RedisURI),
			zap.Error(err))
		return
	}

	logging.Logger.Info("connected to Redis",
		zap.String("uri", AppConfig.RedisURI))
}

// redisAddrs splits a comma-separated Redis URI into addresses.
func redisAddrs(uri string) []string {
	var addrs []string
	for _, addr := range strings.Split(uri, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			addrs = append(addrs, addr)
		}
	}
	if len(addrs) == 0 {
		addrs = []string{"localhost:6379"}
	}
	return addrs
}

// maskMongoURI masks sensitive information in MongoDB URI
func maskMongoURI(uri string) string {
	at := strings.LastIndex(uri, "@")
	if at == -1 {
		return uri
	}
	return "mongodb://****:****@" + uri[at+1:]
}

// ensureIndexes creates required indexes if they don't exist
func ensureIndexes() error {
	logger := logging.Logger.With(zap.String("component", "database"))
	logger.Info("ensuring required indexes exist")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ensureUsersIndexes(ctx); err != nil {
		return err
	}
	return ensureAuditIndexes(ctx)
}

// ensureUsersIndexes creates the unique identifier indexes on the users
// collection. Both are sparse: a user has an email, a phone number, or both.
func ensureUsersIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "phone_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
		},
	}

	_, err := MongoDB.Collection(AppConfig.UsersCollection).Indexes().CreateMany(ctx, indexes)
	return err
}

// ensureAuditIndexes creates lookup indexes on the auth audit collection.
func ensureAuditIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "identifier", Value: 1}, {Key: "timestamp", Value: -1}},
		},
		{
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32((90 * 24 * time.Hour).Seconds())),
		},
	}

	_, err := MongoDB.Collection(AppConfig.AuditCollection).Indexes().CreateMany(ctx, indexes)
	return err
}
