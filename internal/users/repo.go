package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct {
	db          *pgxpool.Pool
	gracePeriod time.Duration
}

func NewRepo(db *pgxpool.Pool, gracePeriod time.Duration) *Repo {
	return &Repo{db: db, gracePeriod: gracePeriod}
}

const userCols = `
id::text, firebase_uid, coalesce(email,''), coalesce(display_name,''), coalesce(photo_url,''),
coalesce(username,''), username_is_temp, username_changed_at, username_change_count,
banned_at, coalesce(ban_reason,''), ban_expires_at, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.FirebaseUID, &u.Email, &u.DisplayName, &u.PhotoURL,
		&u.Username, &u.UsernameIsTemp, &u.ChangedAt, &u.ChangeCount,
		&u.BannedAt, &u.BanReason, &u.BanExpiresAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

type UpsertUser struct {
	FirebaseUID string
	Email       string
	DisplayName string
	PhotoURL    string
}

// EnsureUser upserts a user row from token claims. First sight assigns a
// random temporary username; the retry loop absorbs the unlikely collision.
func (r *Repo) EnsureUser(ctx context.Context, u UpsertUser) (*User, error) {
	if u.FirebaseUID == "" {
		return nil, fmt.Errorf("firebase_uid required")
	}

	for i := 0; i < 5; i++ {
		q := `
insert into users (firebase_uid, email, display_name, photo_url, username, updated_at)
values ($1, nullif($2,''), nullif($3,''), nullif($4,''), $5, now())
on conflict (firebase_uid) do update
set
  email = coalesce(excluded.email, users.email),
  display_name = coalesce(excluded.display_name, users.display_name),
  photo_url = coalesce(excluded.photo_url, users.photo_url),
  updated_at = now()
returning ` + userCols + `;`

		user, err := scanUser(r.db.QueryRow(ctx, q, u.FirebaseUID, u.Email, u.DisplayName, u.PhotoURL, TempUsername()))
		if err == nil {
			return user, nil
		}

		// unique violation on the temp username → retry with a fresh one
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed to generate unique temp username")
}

func (r *Repo) GetByID(ctx context.Context, id string) (*User, error) {
	q := `select ` + userCols + ` from users where id = $1::uuid;`
	return scanUser(r.db.QueryRow(ctx, q, id))
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (*User, error) {
	q := `select ` + userCols + ` from users where username = $1;`
	return scanUser(r.db.QueryRow(ctx, q, username))
}

// IsAvailable reports whether a normalized, validated username can be claimed
// by forUserID. Live reservations block everyone except their prior owner.
func (r *Repo) IsAvailable(ctx context.Context, username, forUserID string) (bool, error) {
	const q = `
select
  exists (select 1 from users where username = $1 and id <> $2::uuid),
  exists (select 1 from username_reservations
          where username = $1 and user_id <> $2::uuid and expires_at > now());`

	var taken, reserved bool
	if err := r.db.QueryRow(ctx, q, username, forUserID).Scan(&taken, &reserved); err != nil {
		return false, err
	}
	return !taken && !reserved, nil
}

// Suggest derives an available username from the user's profile, appending a
// random suffix until one is free.
func (r *Repo) Suggest(ctx context.Context, user *User) (string, error) {
	base := SuggestBase(user.DisplayName, user.Email)
	if ok, _ := ValidateUsername(base); ok {
		if avail, err := r.IsAvailable(ctx, base, user.ID); err != nil {
			return "", err
		} else if avail {
			return base, nil
		}
	} else {
		// the bare fallback is reserved, only suffixed candidates work
		base = "user"
	}

	for i := 0; i < 10; i++ {
		candidate := base + "-" + randomSuffix(4)
		if len(candidate) > usernameMaxLen {
			candidate = candidate[:usernameMaxLen]
		}
		ok, err := r.IsAvailable(ctx, candidate, user.ID)
		if err != nil {
			return "", err
		}
		if ok {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("could not find an available username for %q", base)
}

// SetUsername performs the whole rename inside one transaction: cooldown
// check, reservation check, reservation of the released name, counter update.
func (r *Repo) SetUsername(ctx context.Context, userID, username string) (*User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	u, err := scanUser(tx.QueryRow(ctx, `select `+userCols+` from users where id = $1::uuid for update;`, userID))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if u.Username == username {
		return u, nil
	}
	if cd := u.Cooldown(now); !cd.CanChange {
		return nil, fmt.Errorf("%w until %s", ErrCooldownActive, cd.NextChangeAt.UTC().Format(time.RFC3339))
	}

	// A live reservation held by someone else blocks the claim; the prior
	// owner reclaiming their own name consumes the reservation.
	var reservedBy string
	err = tx.QueryRow(ctx,
		`select user_id::text from username_reservations where username = $1 and expires_at > now();`,
		username).Scan(&reservedBy)
	switch {
	case err == nil && reservedBy != userID:
		return nil, ErrUsernameReserved
	case err == nil:
		if _, err := tx.Exec(ctx, `delete from username_reservations where username = $1;`, username); err != nil {
			return nil, err
		}
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, err
	}

	// Hold the released name for its prior owner, unless it was a temp one.
	if !u.UsernameIsTemp && u.Username != "" {
		_, err = tx.Exec(ctx, `
insert into username_reservations (username, user_id, expires_at)
values ($1, $2::uuid, $3)
on conflict (username) do update set user_id = excluded.user_id, expires_at = excluded.expires_at;`,
			u.Username, userID, now.Add(r.gracePeriod))
		if err != nil {
			return nil, err
		}
	}

	// The first change away from a temp username is free and not counted.
	const q = `
update users
set username = $2,
    username_is_temp = false,
    username_changed_at = case when $3 then username_changed_at else now() end,
    username_change_count = username_change_count + case when $3 then 0 else 1 end,
    updated_at = now()
where id = $1::uuid
returning ` + userCols + `;`

	updated, err := scanUser(tx.QueryRow(ctx, q, userID, username, u.UsernameIsTemp))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Repo) Ban(ctx context.Context, userID, reason string, expiresAt *time.Time) error {
	ct, err := r.db.Exec(ctx, `
update users
set banned_at = now(), ban_reason = $2, ban_expires_at = $3, updated_at = now()
where id = $1::uuid;`, userID, reason, expiresAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Unban(ctx context.Context, userID string) error {
	ct, err := r.db.Exec(ctx, `
update users
set banned_at = null, ban_reason = null, ban_expires_at = null, updated_at = now()
where id = $1::uuid;`, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeExpiredReservations drops lapsed grace-period holds. Run from cron.
func (r *Repo) PurgeExpiredReservations(ctx context.Context) (int64, error) {
	ct, err := r.db.Exec(ctx, `delete from username_reservations where expires_at <= now();`)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// ClearLapsedBans lifts bans whose expiry has passed. Run from cron.
func (r *Repo) ClearLapsedBans(ctx context.Context) (int64, error) {
	ct, err := r.db.Exec(ctx, `
update users
set banned_at = null, ban_reason = null, ban_expires_at = null, updated_at = now()
where banned_at is not null and ban_expires_at is not null and ban_expires_at <= now();`)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
