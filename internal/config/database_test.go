package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedisAddrs(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want []string
	}{
		{"single node", "localhost:6379", []string{"localhost:6379"}},
		{"cluster", "redis-1:6379,redis-2:6379,redis-3:6379", []string{"redis-1:6379", "redis-2:6379", "redis-3:6379"}},
		{"spaces around commas", "redis-1:6379, redis-2:6379", []string{"redis-1:6379", "redis-2:6379"}},
		{"trailing comma", "redis-1:6379,", []string{"redis-1:6379"}},
		{"empty falls back to default", "", []string{"localhost:6379"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, redisAddrs(tt.uri))
		})
	}
}

func TestMaskMongoURI(t *testing.T) {
	assert.Equal(t, "mongodb://****:****@db:27017", maskMongoURI("mongodb://user:secret@db:27017"))
	assert.Equal(t, "mongodb://db:27017", maskMongoURI("mongodb://db:27017"))
}
