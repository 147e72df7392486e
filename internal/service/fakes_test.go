package service

import (
	"context"
	"sync"
	"time"

	"woosync/internal/core/domain"
	"woosync/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-memory repositories ---

type fakeConnRepo struct {
	mu    sync.Mutex
	conns map[uuid.UUID]*domain.Connection
}

func newFakeConnRepo() *fakeConnRepo {
	return &fakeConnRepo{conns: make(map[uuid.UUID]*domain.Connection)}
}

func (r *fakeConnRepo) Create(ctx context.Context, conn *domain.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *conn
	r.conns[conn.ID] = &c
	return nil
}

func (r *fakeConnRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeConnRepo) List(ctx context.Context, activeOnly bool) ([]domain.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Connection
	for _, c := range r.conns {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeConnRepo) Update(ctx context.Context, conn *domain.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *conn
	r.conns[conn.ID] = &c
	return nil
}

func (r *fakeConnRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ConnectionStatus, lastError *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.conns[id]; ok {
		c.Status = status
		c.LastError = lastError
	}
	return nil
}

type fakeProductRepo struct {
	mu      sync.Mutex
	mirrors map[uuid.UUID]*domain.ProductMirror
	images  map[uuid.UUID][]*domain.ProductImage
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		mirrors: make(map[uuid.UUID]*domain.ProductMirror),
		images:  make(map[uuid.UUID][]*domain.ProductImage),
	}
}

func (r *fakeProductRepo) Upsert(ctx context.Context, m *domain.ProductMirror) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.mirrors {
		if existing.ConnectionID == m.ConnectionID && existing.RemoteID == m.RemoteID && existing.RemoteID != 0 && existing.ID != m.ID {
			m.ID = existing.ID
			break
		}
	}
	copied := *m
	r.mirrors[m.ID] = &copied
	return nil
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductMirror, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.mirrors[id]; ok {
		copied := *m
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeProductRepo) GetByRemoteID(ctx context.Context, connectionID uuid.UUID, remoteID int64) (*domain.ProductMirror, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.mirrors {
		if m.ConnectionID == connectionID && m.RemoteID == remoteID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) GetBySKU(ctx context.Context, connectionID uuid.UUID, sku string) (*domain.ProductMirror, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.mirrors {
		if m.ConnectionID == connectionID && m.SKU == sku {
			copied := *m
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) GetByName(ctx context.Context, connectionID uuid.UUID, name string) (*domain.ProductMirror, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.mirrors {
		if m.ConnectionID == connectionID && m.Name == name {
			copied := *m
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) ListBySyncStatus(ctx context.Context, connectionID uuid.UUID, status domain.SyncStatus) ([]domain.ProductMirror, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ProductMirror
	for _, m := range r.mirrors {
		if m.ConnectionID == connectionID && m.SyncStatus == status {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) ListByConnection(ctx context.Context, connectionID uuid.UUID) ([]domain.ProductMirror, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ProductMirror
	for _, m := range r.mirrors {
		if m.ConnectionID == connectionID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) UpdateSyncState(ctx context.Context, m *domain.ProductMirror) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.mirrors[m.ID]; ok {
		stored.RemoteID = m.RemoteID
		stored.SyncStatus = m.SyncStatus
		stored.LastError = m.LastError
		stored.LastSyncAt = m.LastSyncAt
	}
	return nil
}

func (r *fakeProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.mirrors, id)
	delete(r.images, id)
	return nil
}

func (r *fakeProductRepo) AddImage(ctx context.Context, img *domain.ProductImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *img
	r.images[img.ProductID] = append(r.images[img.ProductID], &copied)
	return nil
}

func (r *fakeProductRepo) ListImages(ctx context.Context, productID uuid.UUID) ([]domain.ProductImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ProductImage
	for _, img := range r.images[productID] {
		out = append(out, *img)
	}
	return out, nil
}

func (r *fakeProductRepo) UpdateImageState(ctx context.Context, img *domain.ProductImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.images[img.ProductID] {
		if stored.ID == img.ID {
			stored.RemoteMediaID = img.RemoteMediaID
			stored.RemoteURL = img.RemoteURL
			stored.SyncStatus = img.SyncStatus
			stored.LastError = img.LastError
		}
	}
	return nil
}

type fakeCustomerRepo struct {
	mu        sync.Mutex
	customers map[string]*domain.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{customers: make(map[string]*domain.Customer)}
}

func (r *fakeCustomerRepo) Create(ctx context.Context, tx pgx.Tx, c *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *c
	r.customers[c.Email] = &copied
	return nil
}

func (r *fakeCustomerRepo) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.customers[email]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeCustomerRepo) Update(ctx context.Context, tx pgx.Tx, c *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *c
	r.customers[c.Email] = &copied
	return nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order // keyed by connectionID:orderKey
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*domain.Order)}
}

func orderKey(connectionID uuid.UUID, key string) string {
	return connectionID.String() + ":" + key
}

func (r *fakeOrderRepo) Create(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := orderKey(o.ConnectionID, o.RemoteOrderKey)
	if _, exists := r.orders[key]; exists {
		return ports.ErrDuplicateKey
	}
	copied := *o
	r.orders[key] = &copied
	return nil
}

func (r *fakeOrderRepo) GetByRemoteKey(ctx context.Context, connectionID uuid.UUID, key string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[orderKey(connectionID, key)]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

type fakeWebhookRepo struct {
	mu        sync.Mutex
	endpoints map[string]*domain.WebhookEndpoint
	logs      []*domain.WebhookLog
}

func newFakeWebhookRepo() *fakeWebhookRepo {
	return &fakeWebhookRepo{endpoints: make(map[string]*domain.WebhookEndpoint)}
}

func (r *fakeWebhookRepo) CreateEndpoint(ctx context.Context, ep *domain.WebhookEndpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *ep
	r.endpoints[ep.Token] = &copied
	return nil
}

func (r *fakeWebhookRepo) GetEndpointByToken(ctx context.Context, token string) (*domain.WebhookEndpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ep, ok := r.endpoints[token]; ok {
		copied := *ep
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeWebhookRepo) ListEndpoints(ctx context.Context, connectionID uuid.UUID) ([]domain.WebhookEndpoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.WebhookEndpoint
	for _, ep := range r.endpoints {
		if ep.ConnectionID == connectionID {
			out = append(out, *ep)
		}
	}
	return out, nil
}

func (r *fakeWebhookRepo) UpdateEndpoint(ctx context.Context, ep *domain.WebhookEndpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *ep
	r.endpoints[ep.Token] = &copied
	return nil
}

func (r *fakeWebhookRepo) CreateLog(ctx context.Context, log *domain.WebhookLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *log
	r.logs = append(r.logs, &copied)
	return nil
}

func (r *fakeWebhookRepo) ListLogs(ctx context.Context, endpointID uuid.UUID, limit int) ([]domain.WebhookLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.WebhookLog
	for _, l := range r.logs {
		if l.EndpointID == endpointID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *fakeWebhookRepo) logCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.logs)
}

// --- Fake remote API ---

// fakeCatalog records every call and serves scripted pages and errors.
type fakeCatalog struct {
	mu          sync.Mutex
	pages       [][]domain.RemoteProduct
	listErr     error
	createErr   error
	updateErr   error
	countErr    error
	countResult int
	nextID      int64

	listCalls   int
	createCalls int
	updateCalls int
	deleteCalls int
	updates     []domain.RemoteProductUpdate
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{nextID: 1000}
}

func (c *fakeCatalog) ListProducts(ctx context.Context, conn *domain.Connection, page, perPage int) ([]domain.RemoteProduct, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listCalls++
	if c.listErr != nil {
		return nil, c.listErr
	}
	if page > len(c.pages) {
		return nil, nil
	}
	return c.pages[page-1], nil
}

func (c *fakeCatalog) GetProduct(ctx context.Context, conn *domain.Connection, remoteID int64) (*domain.RemoteProduct, error) {
	return &domain.RemoteProduct{ID: remoteID}, nil
}

func (c *fakeCatalog) CreateProduct(ctx context.Context, conn *domain.Connection, upd *domain.RemoteProductUpdate) (*domain.RemoteProduct, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createCalls++
	if c.createErr != nil {
		return nil, c.createErr
	}
	c.nextID++
	p := &domain.RemoteProduct{ID: c.nextID}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	return p, nil
}

func (c *fakeCatalog) UpdateProduct(ctx context.Context, conn *domain.Connection, remoteID int64, upd *domain.RemoteProductUpdate) (*domain.RemoteProduct, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateCalls++
	c.updates = append(c.updates, *upd)
	if c.updateErr != nil {
		return nil, c.updateErr
	}
	p := &domain.RemoteProduct{ID: remoteID}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	return p, nil
}

func (c *fakeCatalog) DeleteProduct(ctx context.Context, conn *domain.Connection, remoteID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteCalls++
	return nil
}

func (c *fakeCatalog) CountProducts(ctx context.Context, conn *domain.Connection) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.countErr != nil {
		return 0, c.countErr
	}
	return c.countResult, nil
}

func (c *fakeCatalog) outboundCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.createCalls + c.updateCalls + c.deleteCalls
}

type fakeUploader struct {
	mu      sync.Mutex
	err     error
	calls   int
	nextID  int64
	baseURL string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{nextID: 500, baseURL: "https://store.example/media/"}
}

func (u *fakeUploader) UploadMedia(ctx context.Context, conn *domain.Connection, filename string, data []byte) (int64, string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.err != nil {
		return 0, "", u.err
	}
	u.nextID++
	return u.nextID, u.baseURL + filename, nil
}

// fakeFetcher serves scripted responses per call, so tests can fail the
// first attempt and succeed the second.
type fakeFetcher struct {
	mu        sync.Mutex
	responses []fetchResponse
	calls     int
}

type fetchResponse struct {
	data []byte
	err  error
}

func (f *fakeFetcher) FetchImage(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.responses) == 0 {
		return []byte("image-bytes"), nil
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp.data, resp.err
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key], nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

// --- No-op transactor ---

type fakeTransactor struct{}

func (t *fakeTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
