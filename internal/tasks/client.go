package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// Client runs background maintenance for the bookstore on backlite. Its
// queue lives in its own SQLite file, so it works the same whether the
// catalog is stored in SQLite or PostgreSQL.
type Client struct {
	queue  *backlite.Client
	db     *sql.DB
	config Config

	mu      sync.Mutex
	queues  []string
	running bool
}

// NewClient opens (or creates) the queue file at dbPath and installs the
// backlite schema in it.
func NewClient(dbPath string, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("tasks: create %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", queueDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("tasks: open %s: %w", dbPath, err)
	}
	// Every worker holds a connection while it runs; the dispatcher needs one more.
	db.SetMaxOpenConns(cfg.Workers + 1)

	queue, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLogger{},
	})
	if err == nil {
		err = queue.Install()
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("tasks: set up queue in %s: %w", dbPath, err)
	}

	return &Client{queue: queue, db: db, config: cfg}, nil
}

// queueDSN keeps the queue file in WAL mode and waits on locks instead of
// failing while a worker holds the write lock.
func queueDSN(path string) string {
	params := url.Values{}
	params.Set("_journal", "WAL")
	params.Set("_busy_timeout", "5000")
	return path + "?" + params.Encode()
}

// Register adds queues. Queues registered after Start are not picked up.
func (c *Client) Register(queues ...backlite.Queue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, q := range queues {
		c.queue.Register(q)
		c.queues = append(c.queues, q.Config().Name)
	}
}

// Start runs the workers until ctx is cancelled or Stop is called. Calling it
// again while running does nothing.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	names := append([]string(nil), c.queues...)
	c.mu.Unlock()

	sort.Strings(names)
	log.Printf("Task queue: %d worker(s) serving %v", c.config.Workers, names)
	c.queue.Start(ctx)
}

// Stop lets running tasks finish. It reports false when ctx expired first.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.Lock()
	running := c.running
	c.running = false
	c.mu.Unlock()
	if !running {
		return true
	}

	if !c.queue.Stop(ctx) {
		log.Println("Task queue: stopped before every task finished")
		return false
	}
	log.Println("Task queue: stopped")
	return true
}

// Close closes the queue file. Call it after Stop.
func (c *Client) Close() error {
	return c.db.Close()
}

// Add starts an enqueue operation; call Save or Tx on the result.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.queue.Add(tasks...)
}

type queueLogger struct{}

func (queueLogger) Info(message string, params ...any) {
	log.Println(append([]any{"Task queue:", message}, params...)...)
}

func (queueLogger) Error(message string, params ...any) {
	log.Println(append([]any{"Task queue ERROR:", message}, params...)...)
}
