package requests

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshfold/freshfold-backend/internal/geo"
	"github.com/freshfold/freshfold-backend/internal/offers"
	"github.com/freshfold/freshfold-backend/internal/settlement"
	"github.com/freshfold/freshfold-backend/internal/users"
	"github.com/freshfold/freshfold-backend/pkg/db/models"
	"github.com/freshfold/freshfold-backend/pkg/enums"
)

// memRequests is an in-memory Repository whose conditional updates run under
// one lock, preserving the exactly-one-winner semantics of the SQL versions.
type memRequests struct {
	mu      sync.Mutex
	reqs    map[uuid.UUID]*models.ServiceRequest
	changes map[uuid.UUID]*models.ChangeRequest
}

func newMemRequests() *memRequests {
	return &memRequests{
		reqs:    map[uuid.UUID]*models.ServiceRequest{},
		changes: map[uuid.UUID]*models.ChangeRequest{},
	}
}

func (m *memRequests) WithTx(tx *gorm.DB) Repository { return m }

func (m *memRequests) Create(ctx context.Context, req *models.ServiceRequest) (*models.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	clone := *req
	m.reqs[req.ID] = &clone
	return req, nil
}

func (m *memRequests) FindByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.reqs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *stored
	return &clone, nil
}

func (m *memRequests) ListByActor(ctx context.Context, actorID uuid.UUID, role enums.UserRole, limit, offset int) ([]models.ServiceRequest, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []models.ServiceRequest
	for _, req := range m.reqs {
		switch role {
		case enums.UserRoleDriver:
			if req.DriverID != nil && *req.DriverID == actorID {
				rows = append(rows, *req)
			}
		case enums.UserRoleLaundromat:
			if req.LaundromatID != nil && *req.LaundromatID == actorID {
				rows = append(rows, *req)
			}
		default:
			if req.CustomerID == actorID {
				rows = append(rows, *req)
			}
		}
	}
	return rows, int64(len(rows)), nil
}

func (m *memRequests) Save(ctx context.Context, req *models.ServiceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *req
	m.reqs[req.ID] = &clone
	return nil
}

func (m *memRequests) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.RequestStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.reqs[id]
	if !ok || stored.Status != from {
		return false, nil
	}
	stored.Status = to
	return true, nil
}

func (m *memRequests) AssignDriver(ctx context.Context, id, driverID uuid.UUID, from, to enums.RequestStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.reqs[id]
	if !ok || stored.DriverID != nil || stored.Status != from {
		return false, nil
	}
	stored.DriverID = &driverID
	stored.Status = to
	return true, nil
}

func (m *memRequests) AssignLaundromat(ctx context.Context, id, laundromatID uuid.UUID, from, to enums.RequestStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.reqs[id]
	if !ok || stored.LaundromatID != nil || stored.Status != from {
		return false, nil
	}
	stored.LaundromatID = &laundromatID
	stored.Status = to
	return true, nil
}

func (m *memRequests) MarkSettled(ctx context.Context, id uuid.UUID, from, to enums.RequestStatus, settledAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.reqs[id]
	if !ok || stored.Status != from || stored.SettledAt != nil {
		return false, nil
	}
	stored.Status = to
	stored.SettledAt = &settledAt
	return true, nil
}

func (m *memRequests) AddAdditionalAmount(ctx context.Context, id uuid.UUID, deltaCents int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.reqs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.AdditionalAmountCents += deltaCents
	return nil
}

func (m *memRequests) AddTip(ctx context.Context, id uuid.UUID, tipCents int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.reqs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.TipCents += tipCents
	return nil
}

func (m *memRequests) CreateChangeRequest(ctx context.Context, change *models.ChangeRequest) (*models.ChangeRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.changes {
		if existing.RequestID == change.RequestID && existing.Status == enums.ChangeRequestStatusPending {
			return nil, gorm.ErrDuplicatedKey
		}
	}
	if change.ID == uuid.Nil {
		change.ID = uuid.New()
	}
	clone := *change
	m.changes[change.ID] = &clone
	return change, nil
}

func (m *memRequests) FindPendingChangeRequest(ctx context.Context, requestID uuid.UUID) (*models.ChangeRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, change := range m.changes {
		if change.RequestID == requestID && change.Status == enums.ChangeRequestStatusPending {
			clone := *change
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRequests) ResolveChangeRequest(ctx context.Context, changeID uuid.UUID, status enums.ChangeRequestStatus, resolvedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.changes[changeID]
	if !ok || stored.Status != enums.ChangeRequestStatusPending {
		return false, nil
	}
	stored.Status = status
	stored.ResolvedAt = &resolvedAt
	return true, nil
}

// memOffers mirrors the conditional-delete discipline of the SQL pool.
type memOffers struct {
	mu   sync.Mutex
	open map[uuid.UUID]map[uuid.UUID]models.CandidateOffer
}

func newMemOffers() *memOffers {
	return &memOffers{open: map[uuid.UUID]map[uuid.UUID]models.CandidateOffer{}}
}

func (m *memOffers) WithTx(tx *gorm.DB) offers.Repository { return m }

func (m *memOffers) Open(ctx context.Context, rows []models.CandidateOffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		byCandidate, ok := m.open[row.RequestID]
		if !ok {
			byCandidate = map[uuid.UUID]models.CandidateOffer{}
			m.open[row.RequestID] = byCandidate
		}
		byCandidate[row.CandidateID] = row
	}
	return nil
}

func (m *memOffers) Claim(ctx context.Context, requestID, candidateID uuid.UUID) (bool, error) {
	return m.remove(requestID, candidateID), nil
}

func (m *memOffers) Release(ctx context.Context, requestID, candidateID uuid.UUID) (bool, error) {
	return m.remove(requestID, candidateID), nil
}

func (m *memOffers) remove(requestID, candidateID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	byCandidate, ok := m.open[requestID]
	if !ok {
		return false
	}
	if _, held := byCandidate[candidateID]; !held {
		return false
	}
	delete(byCandidate, candidateID)
	return true
}

func (m *memOffers) Remaining(ctx context.Context, requestID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.open[requestID])), nil
}

func (m *memOffers) PurgeAll(ctx context.Context, requestID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var purged []uuid.UUID
	for candidateID := range m.open[requestID] {
		purged = append(purged, candidateID)
	}
	delete(m.open, requestID)
	return purged, nil
}

func (m *memOffers) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.CandidateOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []models.CandidateOffer
	for _, row := range m.open[requestID] {
		rows = append(rows, row)
	}
	return rows, nil
}

func (m *memOffers) HasOffer(ctx context.Context, requestID, candidateID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, held := m.open[requestID][candidateID]
	return held, nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMemUsers(seed ...*models.User) *memUsers {
	m := &memUsers{users: map[uuid.UUID]*models.User{}}
	for _, u := range seed {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) WithTx(tx *gorm.DB) users.Repository { return m }

func (m *memUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *memUsers) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []models.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			rows = append(rows, *u)
		}
	}
	return rows, nil
}

func (m *memUsers) FindLaundromatTwin(ctx context.Context, driver *models.User) (*models.User, error) {
	if driver.CountryID == nil || driver.Phone == nil || driver.Email == nil {
		return nil, gorm.ErrRecordNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == driver.ID || u.Role != enums.UserRoleLaundromat {
			continue
		}
		if u.CountryID == nil || u.Phone == nil || u.Email == nil {
			continue
		}
		if *u.CountryID == *driver.CountryID && *u.Phone == *driver.Phone && *u.Email == *driver.Email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUsers) IncrementWallet(ctx context.Context, userID uuid.UUID, amountCents int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.WalletAmountCents += amountCents
	return nil
}

func (m *memUsers) UpdateLocation(ctx context.Context, userID uuid.UUID, lat, lng float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Lat = &lat
	u.Lng = &lng
	return nil
}

func (m *memUsers) UpdatePushToken(ctx context.Context, userID uuid.UUID, token *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PushToken = token
	return nil
}

type stubGeo struct {
	byRole map[enums.UserRole][]geo.Candidate
	err    error
}

func (s *stubGeo) FindCandidates(ctx context.Context, role enums.UserRole, lat, lng, radiusKm float64) ([]geo.Candidate, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.byRole[role], nil
}

type stubSettlement struct {
	mu         sync.Mutex
	settles    int
	charges    int
	tipAmounts []int64
	settleErr  error
}

func (s *stubSettlement) Settle(ctx context.Context, tx *gorm.DB, req *models.ServiceRequest) (*settlement.Breakdown, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settleErr != nil {
		return nil, s.settleErr
	}
	s.settles++
	return &settlement.Breakdown{TotalCents: req.TotalCents()}, nil
}

func (s *stubSettlement) RecordCharge(ctx context.Context, tx *gorm.DB, req *models.ServiceRequest, intentID, methodID *string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charges++
	return &models.Transaction{ID: uuid.New(), RequestID: req.ID, Kind: enums.TransactionKindCharge}, nil
}

func (s *stubSettlement) RecordTip(ctx context.Context, tx *gorm.DB, req *models.ServiceRequest, driverID uuid.UUID, amountCents int64, intentID, methodID *string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tipAmounts = append(s.tipAmounts, amountCents)
	return &models.Transaction{ID: uuid.New(), RequestID: req.ID, Kind: enums.TransactionKindTip}, nil
}

func (s *stubSettlement) settleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settles
}

type stubPayments struct {
	mu      sync.Mutex
	intents int
	err     error
}

func (s *stubPayments) CreatePaymentIntent(ctx context.Context, amountCents int64, customerID, paymentMethodID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.intents++
	return "pi_test", nil
}
