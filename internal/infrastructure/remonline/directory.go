package remonline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/remflow/stockhistory-api/internal/application/history"
	"github.com/remflow/stockhistory-api/internal/domain/entity"
	"github.com/remflow/stockhistory-api/pkg/logger"
)

var _ history.EmployeeDirectory = (*Directory)(nil)

// employee is the employee list wire shape.
type employee struct {
	ID        entity.FlexID `json:"id"`
	Name      string        `json:"name"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
}

func (e employee) displayName() string {
	if e.Name != "" {
		return e.Name
	}
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// Directory is a TTL-cached employee id to display name lookup. Loads are
// best effort and run under singleflight; a failed load leaves the previous
// snapshot in place and lookups simply miss.
type Directory struct {
	client *Client
	ttl    time.Duration
	log    *logger.Logger

	group singleflight.Group

	mu       sync.RWMutex
	names    map[int64]string
	loadedAt time.Time
}

// NewDirectory constructs the directory. Nothing is fetched until first use.
func NewDirectory(client *Client, ttl time.Duration, log *logger.Logger) *Directory {
	return &Directory{
		client: client,
		ttl:    ttl,
		log:    log,
		names:  map[int64]string{},
	}
}

// EmployeeName resolves an employee id to a display name.
func (d *Directory) EmployeeName(ctx context.Context, id int64) (string, bool) {
	d.ensureFresh(ctx)

	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.names[id]
	return name, ok
}

func (d *Directory) ensureFresh(ctx context.Context) {
	d.mu.RLock()
	fresh := !d.loadedAt.IsZero() && time.Since(d.loadedAt) < d.ttl
	d.mu.RUnlock()
	if fresh {
		return
	}

	_, err, _ := d.group.Do("load", func() (interface{}, error) {
		return nil, d.load(ctx)
	})
	if err != nil {
		d.log.Warn().Err(err).Msg("employee directory load failed, lookups will miss")
	}
}

func (d *Directory) load(ctx context.Context) error {
	employees, err := d.client.fetchEmployees(ctx)
	if err != nil && len(employees) == 0 {
		return fmt.Errorf("directory: %w", err)
	}

	names := make(map[int64]string, len(employees))
	for _, e := range employees {
		if e.ID == 0 {
			continue
		}
		if name := e.displayName(); name != "" {
			names[int64(e.ID)] = name
		}
	}

	d.mu.Lock()
	d.names = names
	d.loadedAt = time.Now()
	d.mu.Unlock()

	d.log.Debug().Int("employees", len(names)).Msg("employee directory refreshed")
	return nil
}
