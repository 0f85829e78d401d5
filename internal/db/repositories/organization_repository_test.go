package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/fest-dev/fest/internal/db/models"
)

var orgCols = []string{"id", "name", "logo", "created_at", "updated_at"}

var memberCols = []string{"organization_id", "user_id", "role", "assigned_at"}

func sampleOrgRow() *sqlmock.Rows {
	return sqlmock.NewRows(orgCols).
		AddRow("org-1", "Acme", nil, time.Now(), time.Now())
}

func newOrgRepo(t *testing.T) (*OrganizationRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewOrganizationRepository(db), mock
}

// ---------------------------------------------------------------------------
// GetByID / GetByName
// ---------------------------------------------------------------------------

func TestOrgGetByID_Found(t *testing.T) {
	repo, mock := newOrgRepo(t)
	mock.ExpectQuery("SELECT.*FROM organizations.*WHERE id").
		WithArgs("org-1").
		WillReturnRows(sampleOrgRow())

	org, err := repo.GetByID(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if org == nil || org.Name != "Acme" {
		t.Fatalf("org = %v, want Acme", org)
	}
}

func TestOrgGetByID_NotFound(t *testing.T) {
	repo, mock := newOrgRepo(t)
	mock.ExpectQuery("SELECT.*FROM organizations.*WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(orgCols))

	org, err := repo.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if org != nil {
		t.Errorf("expected nil, got %v", org)
	}
}

func TestOrgGetByName_Found(t *testing.T) {
	repo, mock := newOrgRepo(t)
	mock.ExpectQuery("SELECT.*FROM organizations.*WHERE name").
		WithArgs("Acme").
		WillReturnRows(sampleOrgRow())

	org, err := repo.GetByName(context.Background(), "Acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if org == nil || org.ID != "org-1" {
		t.Fatalf("org = %v, want org-1", org)
	}
}

func TestOrgGetByName_DBError(t *testing.T) {
	repo, mock := newOrgRepo(t)
	mock.ExpectQuery("SELECT.*FROM organizations.*WHERE name").
		WithArgs("Acme").
		WillReturnError(errDB)

	if _, err := repo.GetByName(context.Background(), "Acme"); err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// Create / Update / Delete
// ---------------------------------------------------------------------------

func TestCreateOrganization_AssignsID(t *testing.T) {
	repo, mock := newOrgRepo(t)
	mock.ExpectExec("INSERT INTO organizations").
		WillReturnResult(sqlmock.NewResult(0, 1))

	org := &models.Organization{Name: "Acme"}
	if err := repo.CreateOrganization(context.Background(), org); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if org.ID == "" {
		t.Error("CreateOrganization should assign an ID")
	}
}

func TestUpdateOrganization(t *testing.T) {
	repo, mock := newOrgRepo(t)
	mock.ExpectExec("UPDATE organizations.*SET name").
		WithArgs("org-1", "Acme Corp", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	org := &models.Organization{ID: "org-1", Name: "Acme Corp"}
	if err := repo.Update(context.Background(), org); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeleteOrganization(t *testing.T) {
	repo, mock := newOrgRepo(t)
	mock.ExpectExec("DELETE FROM organizations").
		WithArgs("org-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "org-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Membership
// ---------------------------------------------------------------------------

func TestAddMember(t *testing.T) {
	repo, mock := newOrgRepo(t)
	mock.ExpectExec("INSERT INTO organization_users").
		WithArgs("org-1", "user-1", models.RoleAdmin).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.AddMember(context.Background(), "org-1", "user-1", models.RoleAdmin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetMember_Found(t *testing.T) {
	repo, mock := newOrgRepo(t)
	mock.ExpectQuery("SELECT.*FROM organization_users").
		WithArgs("org-1", "user-1").
		WillReturnRows(sqlmock.NewRows(memberCols).
			AddRow("org-1", "user-1", "Member", time.Now()))

	member, err := repo.GetMember(context.Background(), "org-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if member == nil || member.Role != models.RoleMember {
		t.Fatalf("member = %+v, want Member role", member)
	}
}

func TestGetMember_NotFound(t *testing.T) {
	repo, mock := newOrgRepo(t)
	mock.ExpectQuery("SELECT.*FROM organization_users").
		WithArgs("org-1", "stranger").
		WillReturnRows(sqlmock.NewRows(memberCols))

	member, err := repo.GetMember(context.Background(), "org-1", "stranger")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if member != nil {
		t.Errorf("expected nil, got %+v", member)
	}
}

func TestRemoveMember(t *testing.T) {
	repo, mock := newOrgRepo(t)
	mock.ExpectExec("DELETE FROM organization_users").
		WithArgs("org-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RemoveMember(context.Background(), "org-1", "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetUserMemberships(t *testing.T) {
	repo, mock := newOrgRepo(t)
	cols := []string{"organization_id", "name", "logo", "role", "assigned_at"}
	mock.ExpectQuery("SELECT.*FROM organization_users.*JOIN organizations").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("org-1", "Acme", nil, "Admin", time.Now()).
			AddRow("org-2", "Beta", nil, "Member", time.Now()))

	memberships, err := repo.GetUserMemberships(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(memberships) != 2 {
		t.Fatalf("len = %d, want 2", len(memberships))
	}
	if memberships[0].OrganizationName != "Acme" {
		t.Errorf("OrganizationName = %s, want Acme", memberships[0].OrganizationName)
	}
}

func TestCheckMembership(t *testing.T) {
	repo, mock := newOrgRepo(t)
	mock.ExpectQuery("SELECT.*FROM organization_users").
		WithArgs("org-1", "user-1").
		WillReturnRows(sqlmock.NewRows(memberCols).
			AddRow("org-1", "user-1", "Admin", time.Now()))

	isMember, role, err := repo.CheckMembership(context.Background(), "org-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isMember || role != "Admin" {
		t.Errorf("CheckMembership = (%v, %s), want (true, Admin)", isMember, role)
	}
}

func TestCheckMembership_NotMember(t *testing.T) {
	repo, mock := newOrgRepo(t)
	mock.ExpectQuery("SELECT.*FROM organization_users").
		WithArgs("org-1", "stranger").
		WillReturnRows(sqlmock.NewRows(memberCols))

	isMember, _, err := repo.CheckMembership(context.Background(), "org-1", "stranger")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if isMember {
		t.Error("expected not a member")
	}
}
