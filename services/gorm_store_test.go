package services

import (
	"context"
	"os"
	"testing"
	"time"

	"polizas-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// openTestDB connects to TEST_DB_URL and migrates the schema. Tests using it
// are skipped when the variable is unset.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DB_URL")
	if dsn == "" {
		t.Skip("TEST_DB_URL not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// seedCompany creates a company removed, with everything referencing it,
// when the test ends.
func seedCompany(t *testing.T, db *gorm.DB) models.Company {
	t.Helper()
	company := models.Company{Name: "Compañía " + uuid.NewString()}
	require.NoError(t, db.Create(&company).Error)
	t.Cleanup(func() {
		var clientIDs []uuid.UUID
		db.Model(&models.Policy{}).Where("company_id = ?", company.ID).Pluck("client_id", &clientIDs)
		if len(clientIDs) > 0 {
			db.Where("id IN ?", clientIDs).Delete(&models.Client{})
		}
		db.Delete(&company)
	})
	return company
}

func seedPolicy(t *testing.T, db *gorm.DB, company models.Company) models.Policy {
	t.Helper()
	client := models.Client{FullName: "Cliente " + uuid.NewString()[:8]}
	require.NoError(t, db.Omit(clause.Associations).Create(&client).Error)
	policy := models.Policy{
		ClientID:         client.ID,
		CompanyID:        company.ID,
		Branch:           models.BranchAutomotores,
		FirstPaymentDate: models.NewDate(2024, time.January, 10),
	}
	require.NoError(t, db.Omit(clause.Associations).Create(&policy).Error)
	return policy
}

func onlyPolicy(notices []models.PolicyNotice, policyID uuid.UUID) []models.PolicyNotice {
	var out []models.PolicyNotice
	for _, n := range notices {
		if n.PolicyID == policyID {
			out = append(out, n)
		}
	}
	return out
}

func TestGormNoticeStore_Predicates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := NewGormNoticeStore(db)
	policy := seedPolicy(t, db, seedCompany(t, db))

	add := func(due models.Date, status models.NoticeStatus) models.PolicyNotice {
		n := models.PolicyNotice{PolicyID: policy.ID, DueDate: due, Status: status}
		require.NoError(t, store.CreateNotice(ctx, &n))
		return n
	}
	soon := add(models.NewDate(2024, time.March, 10), models.StatusAvisar)
	far := add(models.NewDate(2024, time.April, 30), models.StatusAvisar)
	avisado := add(models.NewDate(2024, time.June, 1), models.StatusAvisado)
	stale := add(models.NewDate(2024, time.February, 10), models.StatusPagado)
	edge := add(models.NewDate(2024, time.February, 15), models.StatusPagado)
	upcoming := add(models.NewDate(2024, time.March, 16), models.StatusPagado)
	later := add(models.NewDate(2024, time.March, 17), models.StatusPagado)

	visible, err := store.ListVisible(ctx, models.NewDate(2024, time.March, 16))
	require.NoError(t, err)
	visible = onlyPolicy(visible, policy.ID)
	assert.Equal(t,
		[]uuid.UUID{stale.ID, edge.ID, soon.ID, upcoming.ID, later.ID, avisado.ID},
		noticeIDs(visible))
	assert.NotContains(t, noticeIDs(visible), far.ID)
	require.NotNil(t, visible[0].Policy)
	require.NotNil(t, visible[0].Policy.Company)

	applied, err := store.MarkPaid(ctx, soon.ID, 2)
	require.NoError(t, err)
	assert.True(t, applied)
	applied, err = store.MarkPaid(ctx, soon.ID, 1)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := store.GetNotice(ctx, soon.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.PaidInstallments)

	deleted, err := store.DeletePaidDueBefore(ctx, models.NewDate(2024, time.February, 15))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{stale.ID}, noticeIDs(onlyPolicy(deleted, policy.ID)))
	assert.Equal(t, "2024-02-10", onlyPolicy(deleted, policy.ID)[0].DueDate.String())

	reset, err := store.ResetPaidDueOnOrBefore(ctx, models.NewDate(2024, time.March, 16))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{edge.ID, soon.ID, upcoming.ID}, noticeIDs(onlyPolicy(reset, policy.ID)))

	got, err = store.GetNotice(ctx, later.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPagado, got.Status)

	_, err = store.GetNotice(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNoticeNotFound)
}

func TestGormNoticeStore_PaymentAndRevert(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := NewGormNoticeStore(db)
	policy := seedPolicy(t, db, seedCompany(t, db))
	today := models.NewDate(2024, time.March, 1)
	svc := NewNoticeService(store, nil, WithClock(func() time.Time { return today.Time }))

	n := models.PolicyNotice{PolicyID: policy.ID, DueDate: models.NewDate(2024, time.January, 31), Status: models.StatusAvisado}
	require.NoError(t, store.CreateNotice(ctx, &n))

	payment, err := svc.RecordPayment(ctx, actor("Ana"), n.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, payment.Next)

	successor, err := store.FindSuccessor(ctx, n.ID)
	require.NoError(t, err)
	require.NotNil(t, successor)
	assert.Equal(t, payment.Next.ID, successor.ID)
	assert.Equal(t, "2024-02-29", successor.DueDate.String())

	_, err = svc.RecordPayment(ctx, actor("Ana"), n.ID, 1)
	assert.ErrorIs(t, err, ErrNoticeAlreadyPaid)

	result, err := svc.UpdateNoticeStatus(ctx, actor("Bruno"), n.ID, models.StatusAvisado)
	require.NoError(t, err)
	require.NotNil(t, result.Deleted)
	assert.Equal(t, successor.ID, result.Deleted.ID)

	_, err = store.GetNotice(ctx, successor.ID)
	assert.ErrorIs(t, err, ErrNoticeNotFound)
}

func TestClientService_UpdateRejectsForeignPolicy(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	company := seedCompany(t, db)
	svc := NewClientService(db, nil)

	policyFor := func() PolicyInput {
		return PolicyInput{
			Branch:           models.BranchAutomotores,
			CompanyID:        company.ID,
			FirstPaymentDate: models.NewDate(2024, time.March, 10),
		}
	}
	owner, err := svc.CreateClient(ctx, ClientInput{FullName: "Juan Pérez"}, []PolicyInput{policyFor()})
	require.NoError(t, err)
	other, err := svc.CreateClient(ctx, ClientInput{FullName: "María Gómez"}, []PolicyInput{policyFor()})
	require.NoError(t, err)
	require.Len(t, owner.Policies, 1)
	require.Len(t, other.Policies, 1)

	var notices int64
	require.NoError(t, db.Model(&models.PolicyNotice{}).Where("policy_id = ?", owner.Policies[0].ID).Count(&notices).Error)
	assert.Equal(t, int64(1), notices)

	foreign := policyFor()
	foreign.ID = &other.Policies[0].ID
	foreign.VehiclePlate = "AA000AA"
	_, err = svc.UpdateClient(ctx, owner.ID, ClientInput{FullName: "Juan Pérez"}, []PolicyInput{foreign})
	require.ErrorIs(t, err, ErrInvalidInput)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "policy_0_id")

	// the transaction is rolled back: the owner keeps its policy and the
	// other client's policy is untouched
	reloaded, err := svc.GetClient(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Policies, 1)
	assert.Equal(t, owner.Policies[0].ID, reloaded.Policies[0].ID)

	untouched, err := svc.GetClient(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, untouched.Policies[0].VehiclePlate)
}
