package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"eventticketing/internal/domain"
)

var eventRowColumns = []string{
	"id", "title", "description", "date", "location", "type", "organizer_id", "attendees",
	"ticket_price", "ticket_tier_regular", "ticket_tier_vip", "created_at", "updated_at",
}

func TestEventRepository_Create(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	date := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr bool
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events \(title, description, date, location, type, organizer_id,`).
					WithArgs("Conf 2025", "Talks", date, "Berlin", "public", "user-uuid-1", 5.0, 10.0, 25.0, at, at).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-uuid-1"))
			},
			wantID: "ev-uuid-1",
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			event := domain.NewEvent("Conf 2025", "Talks", "Berlin", date, domain.EventTypePublic, "user-uuid-1", 5, domain.TicketTiers{Regular: 10, VIP: 25})
			event.CreatedAt, event.UpdatedAt = at, at
			err = NewEventRepository(db).Create(ctx, event)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, event.ID)
			require.Equal(t, []string{}, event.Attendees)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	date := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		want    *domain.Event
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT e.id, e.title, e.description, e.date, e.location, e.type, e.organizer_id, e.attendees,`).
					WithArgs("ev-1").
					WillReturnRows(sqlmock.NewRows(eventRowColumns).
						AddRow("ev-1", "Conf", "Talks", date, "Berlin", "private", "user-1", "{user-2}", 5.0, 10.0, 25.0, at, at))
			},
			want: &domain.Event{
				ID:          "ev-1",
				Title:       "Conf",
				Description: "Talks",
				Date:        date,
				Location:    "Berlin",
				Type:        domain.EventTypePrivate,
				OrganizerID: "user-1",
				Attendees:   []string{"user-2"},
				TicketPrice: 5,
				TicketTiers: domain.TicketTiers{Regular: 10, VIP: 25},
				CreatedAt:   at,
				UpdatedAt:   at,
			},
		},
		{
			name: "not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM events e WHERE e.id = \$1`).
					WithArgs("ev-1").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrEventNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			got, err := NewEventRepository(db).GetByID(ctx, "ev-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_ListVisible(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	cols := append(append([]string{}, eventRowColumns...), "name", "email")

	tests := []struct {
		name   string
		filter domain.EventFilter
		mock   func(mock sqlmock.Sqlmock)
		want   int
	}{
		{
			name:   "no filters only visibility clause",
			filter: domain.EventFilter{},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`WHERE \(e.type = 'public' OR \(e.type = 'private' AND e.organizer_id = \$1\)\) ORDER BY e.date ASC`).
					WithArgs("user-1").
					WillReturnRows(sqlmock.NewRows(cols).
						AddRow("ev-1", "A", "d", from, "Berlin", "public", "user-9", "{}", 0.0, 0.0, 0.0, at, at, "Org", "org@example.com").
						AddRow("ev-2", "B", "d", to, "Paris", "private", "user-1", "{}", 0.0, 0.0, 0.0, at, at, "Me", "me@example.com"))
			},
			want: 2,
		},
		{
			name: "all filters numbered in order",
			filter: domain.EventFilter{
				Search:   "go_conf",
				Location: "berlin",
				Type:     domain.EventTypePublic,
				FromDate: &from,
				ToDate:   &to,
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`AND \(e.title ILIKE \$2 OR e.description ILIKE \$2\) AND e.location ILIKE \$3 AND e.type = \$4 AND e.date >= \$5 AND e.date <= \$6 ORDER BY`).
					WithArgs("user-1", `%go\_conf%`, "%berlin%", "public", from, to).
					WillReturnRows(sqlmock.NewRows(cols))
			},
			want: 0,
		},
		{
			name:   "date range only",
			filter: domain.EventFilter{ToDate: &to},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`AND e.date <= \$2 ORDER BY`).
					WithArgs("user-1", to).
					WillReturnRows(sqlmock.NewRows(cols))
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			got, err := NewEventRepository(db).ListVisible(ctx, "user-1", tt.filter)
			require.NoError(t, err)
			require.Len(t, got, tt.want)
			for _, e := range got {
				require.NotNil(t, e.Organizer)
				require.Equal(t, e.OrganizerID, e.Organizer.ID)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_Update(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	event := &domain.Event{
		ID: "ev-1", Title: "New", Description: "d", Date: at, Location: "Rome", Type: domain.EventTypePublic,
		OrganizerID: "user-1", TicketTiers: domain.TicketTiers{Regular: 12, VIP: 30}, UpdatedAt: at,
	}

	tests := []struct {
		name     string
		mock     func(mock sqlmock.Sqlmock)
		wantErr  error
		otherErr bool
	}{
		{
			name: "success does not write organizer",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE events SET title = \$1, description = \$2, date = \$3, location = \$4, type = \$5, ticket_price = \$6, ticket_tier_regular = \$7, ticket_tier_vip = \$8, updated_at = \$9 WHERE id = \$10`).
					WithArgs("New", "d", at, "Rome", "public", 0.0, 12.0, 30.0, at, "ev-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "zero rows is not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE events`).WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: domain.ErrEventNotFound,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE events`).WillReturnError(sql.ErrConnDone)
			},
			otherErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = NewEventRepository(db).Update(ctx, event)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.otherErr:
				require.Error(t, err)
			default:
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).
					WithArgs("ev-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).
					WithArgs("ev-1").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: domain.ErrEventNotFound,
		},
		{
			name: "malformed id",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM events`).
					WillReturnError(&pq.Error{Code: "22P02"})
			},
			wantErr: domain.ErrEventNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = NewEventRepository(db).Delete(ctx, "ev-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_AddAttendee(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE events SET attendees = array_append\(attendees, \$2::uuid\), updated_at = NOW\(\) WHERE id = \$1 AND NOT \(\$2::uuid = ANY\(attendees\)\)`).
		WithArgs("ev-1", "user-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE events SET attendees = array_append`).
		WithArgs("ev-1", "user-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewEventRepository(db)
	added, err := repo.AddAttendee(context.Background(), "ev-1", "user-2")
	require.NoError(t, err)
	require.True(t, added)
	added, err = repo.AddAttendee(context.Background(), "ev-1", "user-2")
	require.NoError(t, err)
	require.False(t, added)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLikePattern(t *testing.T) {
	require.Equal(t, "%berlin%", likePattern("berlin"))
	require.Equal(t, `%50\%\_off\\%`, likePattern(`50%_off\`))
}
