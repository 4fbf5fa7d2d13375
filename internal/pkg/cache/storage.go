package cache

import (
	"net"
	"strconv"

	redisstorage "github.com/gofiber/storage/redis"
)

// Storage returns fiber storage on the cache server, using a separate Redis
// database so sessions and OAuth state never collide with job keys.
func Storage(database int) *redisstorage.Storage {
	opts := Options()
	host, port := "127.0.0.1", 6379
	if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	return redisstorage.New(redisstorage.Config{
		Host:     host,
		Port:     port,
		Password: opts.Password,
		Database: database,
		Reset:    false,
	})
}
