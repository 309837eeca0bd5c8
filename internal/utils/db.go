package utils

import (
	"database/sql"
	"net"
	"net/url"
	"os"
	"strconv"

	_ "github.com/lib/pq"
)

// BuildPostgresDSNFromEnv：未设置的字段回退 localhost:5432、postgres、qtree、sslmode=disable；口令按 URL 规则转义
func BuildPostgresDSNFromEnv() string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(getenv("PG_HOST", "localhost"), getenv("PG_PORT", "5432")),
		Path:     "/" + getenv("PG_DB", "qtree"),
		RawQuery: "sslmode=" + getenv("PG_SSLMODE", "disable"),
	}
	user := getenv("PG_USER", "postgres")
	if pass := os.Getenv("PG_PASSWORD"); pass != "" {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(user)
	}
	return u.String()
}

// OpenPostgresFromEnv：按 PG_* 环境变量打开连接池；PG_MAX_OPEN_CONNS/PG_MAX_IDLE_CONNS 解析失败时忽略
func OpenPostgresFromEnv() (*sql.DB, error) {
	db, err := sql.Open("postgres", BuildPostgresDSNFromEnv())
	if err != nil {
		return nil, err
	}
	maxOpen, maxIdle := 20, 10
	if n, e := strconv.Atoi(os.Getenv("PG_MAX_OPEN_CONNS")); e == nil {
		maxOpen = n
	}
	if n, e := strconv.Atoi(os.Getenv("PG_MAX_IDLE_CONNS")); e == nil {
		maxIdle = n
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	return db, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
