package integration

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planforge/planforge-backend/internal/blob"
	"github.com/planforge/planforge-backend/internal/notifications"
	"github.com/planforge/planforge-backend/internal/projects"
	projectsvc "github.com/planforge/planforge-backend/internal/projects/service"
	"github.com/planforge/planforge-backend/internal/sharing"
	"github.com/planforge/planforge-backend/internal/users"
)

// setupPostgres connects to the database named by TEST_DB_DSN, applies the
// schema and truncates every table. Skips the test when the env var is unset.
func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping integration test")
	}

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer sqlDB.Close()

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "001_init.sql"))
	require.NoError(t, err)
	_, err = sqlDB.Exec(string(schema))
	require.NoError(t, err)

	_, err = sqlDB.Exec(`truncate users, username_reservations, projects, versions,
		snapshots, share_links, project_members, notifications cascade;`)
	require.NoError(t, err)

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

type env struct {
	db       *pgxpool.Pool
	rdb      *redis.Client
	users    *users.Repo
	projects *projectsvc.Service
	sharing  *sharing.Service
	notifs   *notifications.Service
}

func setupEnv(t *testing.T) env {
	t.Helper()

	pool := setupPostgres(t)
	rdb := setupRedis(t)
	logger := zerolog.Nop()

	userRepo := users.NewRepo(pool, 30*24*time.Hour)
	projectRepo := projects.NewRepo(pool)
	versionRepo := projects.NewVersionRepo(pool)
	snapshotRepo := projects.NewSnapshotRepo(pool)
	shareRepo := sharing.NewRepo(pool)
	notifRepo := notifications.NewRepo(pool)

	notifSvc := notifications.NewService(notifRepo, notifications.NewUnreadCache(rdb), logger)
	projectSvc := projectsvc.New(projectRepo, versionRepo, snapshotRepo, shareRepo, nil)
	shareSvc := sharing.NewService(shareRepo, sharing.NewLinkCache(rdb), projectSvc, projectRepo,
		versionRepo, snapshotRepo, notifSvc, logger)

	return env{db: pool, rdb: rdb, users: userRepo, projects: projectSvc, sharing: shareSvc, notifs: notifSvc}
}

func newUser(t *testing.T, e env, uid string) *users.User {
	t.Helper()
	u, err := e.users.EnsureUser(context.Background(), users.UpsertUser{FirebaseUID: uid})
	require.NoError(t, err)
	return u
}

func TestUsernameLifecycle(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	alice := newUser(t, e, "fb-alice")
	assert.True(t, alice.UsernameIsTemp)
	assert.Contains(t, alice.Username, "user-")

	// EnsureUser is idempotent per firebase uid
	again, err := e.users.EnsureUser(ctx, users.UpsertUser{FirebaseUID: "fb-alice"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, again.ID)
	assert.Equal(t, alice.Username, again.Username)

	// leaving the temp username is free
	alice, err = e.users.SetUsername(ctx, alice.ID, "alice")
	require.NoError(t, err)
	assert.False(t, alice.UsernameIsTemp)
	assert.Equal(t, 0, alice.ChangeCount)

	// the first real change counts and opens a cooldown window
	alice, err = e.users.SetUsername(ctx, alice.ID, "alice-prime")
	require.NoError(t, err)
	assert.Equal(t, 1, alice.ChangeCount)

	_, err = e.users.SetUsername(ctx, alice.ID, "alice-third")
	assert.ErrorIs(t, err, users.ErrCooldownActive)

	// the released name stays reserved for alice
	bob := newUser(t, e, "fb-bob")
	_, err = e.users.SetUsername(ctx, bob.ID, "alice")
	assert.ErrorIs(t, err, users.ErrUsernameReserved)

	_, err = e.users.SetUsername(ctx, bob.ID, "alice-prime")
	assert.ErrorIs(t, err, users.ErrUsernameTaken)

	ok, err := e.users.IsAvailable(ctx, "alice", bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e.users.IsAvailable(ctx, "alice", alice.ID)
	require.NoError(t, err)
	assert.True(t, ok, "own reservation does not block")

	// renaming to the current name is a no-op, not a counted change
	alice, err = e.users.SetUsername(ctx, alice.ID, "alice-prime")
	require.NoError(t, err)
	assert.Equal(t, 1, alice.ChangeCount)
}

func TestBanLifecycle(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	u := newUser(t, e, "fb-carol")
	require.NoError(t, e.users.Ban(ctx, u.ID, "spam", nil))

	banned, err := e.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, banned.Banned(time.Now()))
	assert.Equal(t, "spam", banned.BanStatus(time.Now()).Reason)

	require.NoError(t, e.users.Unban(ctx, u.ID))
	cleared, err := e.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, cleared.Banned(time.Now()))

	// lapsed bans are swept by the maintenance job
	past := time.Now().Add(-time.Minute)
	require.NoError(t, e.users.Ban(ctx, u.ID, "spam", &past))
	n, err := e.users.ClearLapsedBans(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestProjectVersionsAndSnapshots(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	owner := newUser(t, e, "fb-owner")
	owner, err := e.users.SetUsername(ctx, owner.ID, "owner")
	require.NoError(t, err)

	p, err := e.projects.Create(ctx, owner.ID, projectsvc.CreateInput{Name: "My Loft", Public: true})
	require.NoError(t, err)
	assert.Equal(t, "my-loft", p.Slug)

	// a fresh project has exactly one version, the default "main"
	vs, err := e.projects.ListVersions(ctx, p.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, "main", vs[0].Name)
	assert.True(t, vs[0].Default)
	assert.Empty(t, vs[0].SnapshotHash)

	// duplicate slug for the same owner is rejected
	_, err = e.projects.Create(ctx, owner.ID, projectsvc.CreateInput{Name: "Other", Slug: "my-loft"})
	assert.ErrorIs(t, err, projects.ErrSlugTaken)

	content := `{"walls":[{"x":0,"y":0}]}`
	v, snap, err := e.projects.Save(ctx, p.ID, owner.ID, "", content)
	require.NoError(t, err)
	assert.Equal(t, blob.Hash([]byte(content)), v.SnapshotHash)
	assert.Equal(t, int64(len(content)), snap.SizeBytes)

	// identical content maps to the identical snapshot
	v2, snap2, err := e.projects.Save(ctx, p.ID, owner.ID, "main", content)
	require.NoError(t, err)
	assert.Equal(t, snap.ContentHash, snap2.ContentHash)
	assert.Equal(t, v.ID, v2.ID)

	_, _, err = e.projects.Save(ctx, p.ID, owner.ID, "", "   ")
	assert.ErrorIs(t, err, projects.ErrEmptyContent)

	// branching starts at the default head
	draft, err := e.projects.CreateVersion(ctx, p.ID, owner.ID, "draft", "wip", "")
	require.NoError(t, err)
	assert.Equal(t, snap.ContentHash, draft.SnapshotHash)
	assert.False(t, draft.Default)

	_, err = e.projects.CreateVersion(ctx, p.ID, owner.ID, "draft", "", "")
	assert.ErrorIs(t, err, projects.ErrVersionExists)
	_, err = e.projects.CreateVersion(ctx, p.ID, owner.ID, "main", "", "")
	assert.ErrorIs(t, err, projects.ErrReservedVersionName)

	// the default version cannot be deleted
	err = e.projects.DeleteVersion(ctx, p.ID, owner.ID, "main")
	assert.ErrorIs(t, err, projects.ErrDefaultVersion)

	// moving the default makes the old one deletable
	_, err = e.projects.SetDefaultVersion(ctx, p.ID, owner.ID, "draft")
	require.NoError(t, err)
	require.NoError(t, e.projects.DeleteVersion(ctx, p.ID, owner.ID, "main"))

	// the snapshot outlives the version that pointed at it
	got, body, err := e.projects.SnapshotContent(ctx, p.ID, owner.ID, snap.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, content, body)
	assert.Equal(t, snap.ContentHash, got.ContentHash)

	// public resolution by username/slug, anonymously
	rp, rv, rbody, err := e.projects.Resolve(ctx, "owner", "my-loft", "", "")
	require.NoError(t, err)
	assert.Equal(t, p.ID, rp.ID)
	assert.Equal(t, "draft", rv.Name)
	assert.Equal(t, content, rbody)
}

func TestPrivateProjectsStayHidden(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	owner := newUser(t, e, "fb-owner")
	owner, err := e.users.SetUsername(ctx, owner.ID, "owner")
	require.NoError(t, err)
	stranger := newUser(t, e, "fb-stranger")

	p, err := e.projects.Create(ctx, owner.ID, projectsvc.CreateInput{Name: "Secret Lair"})
	require.NoError(t, err)

	// private projects surface as not-found, for strangers and anonymous alike
	_, _, err = e.projects.Get(ctx, p.ID, stranger.ID)
	assert.ErrorIs(t, err, projects.ErrNotFound)
	_, _, _, err = e.projects.Resolve(ctx, "owner", "secret-lair", "", "")
	assert.ErrorIs(t, err, projects.ErrNotFound)
	_, _, _, err = e.projects.Resolve(ctx, "owner", "secret-lair", "", stranger.ID)
	assert.ErrorIs(t, err, projects.ErrNotFound)

	// soft delete hides it from the owner too
	require.NoError(t, e.projects.Delete(ctx, p.ID, owner.ID))
	_, _, err = e.projects.Get(ctx, p.ID, owner.ID)
	assert.ErrorIs(t, err, projects.ErrNotFound)

	// and frees the slug for a new project
	_, err = e.projects.Create(ctx, owner.ID, projectsvc.CreateInput{Name: "Secret Lair"})
	require.NoError(t, err)
}

func TestShareLinksAndMembership(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	owner := newUser(t, e, "fb-owner")
	guest := newUser(t, e, "fb-guest")

	p, err := e.projects.Create(ctx, owner.ID, projectsvc.CreateInput{Name: "Shared Plan"})
	require.NoError(t, err)
	_, _, err = e.projects.Save(ctx, p.ID, owner.ID, "", `{"rooms":[]}`)
	require.NoError(t, err)

	viewerLink, err := e.sharing.CreateLink(ctx, p.ID, owner.ID, projects.RoleViewer, 0)
	require.NoError(t, err)
	assert.Len(t, viewerLink.Token, 32)

	// guests cannot mint links
	_, err = e.sharing.CreateLink(ctx, p.ID, guest.ID, projects.RoleViewer, 0)
	assert.Error(t, err)

	// anonymous resolution works for a private project
	_, rp, err := e.sharing.Resolve(ctx, viewerLink.Token)
	require.NoError(t, err)
	assert.Equal(t, p.ID, rp.ID)

	// joining grants the link role
	m, _, err := e.sharing.Join(ctx, viewerLink.Token, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, projects.RoleViewer, m.Role)

	_, role, err := e.projects.Get(ctx, p.ID, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, projects.RoleViewer, role)

	// viewers cannot save
	_, _, err = e.projects.Save(ctx, p.ID, guest.ID, "", `{"rooms":[1]}`)
	assert.ErrorIs(t, err, projects.ErrAccessDenied)

	// viewers cannot enumerate link tokens either, that would let them join
	// through an editor link
	_, err = e.sharing.ListLinks(ctx, p.ID, guest.ID)
	assert.ErrorIs(t, err, projects.ErrAccessDenied)
	links, err := e.sharing.ListLinks(ctx, p.ID, owner.ID)
	require.NoError(t, err)
	assert.Len(t, links, 1)

	// an editor link upgrades the membership
	editorLink, err := e.sharing.CreateLink(ctx, p.ID, owner.ID, projects.RoleEditor, time.Hour)
	require.NoError(t, err)
	m, _, err = e.sharing.Join(ctx, editorLink.Token, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, projects.RoleEditor, m.Role)

	// re-joining through the viewer link never downgrades
	m, _, err = e.sharing.Join(ctx, viewerLink.Token, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, projects.RoleEditor, m.Role)

	// the owner got notified about the joins
	n, err := e.notifs.UnreadCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.Greater(t, n, int64(0))

	list, err := e.notifs.List(ctx, owner.ID, 10, nil)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.Equal(t, notifications.KindShareJoined, list[0].Kind)

	// revocation kills the token immediately, cache included
	require.NoError(t, e.sharing.RevokeLink(ctx, p.ID, guest.ID, viewerLink.Token))
	_, _, err = e.sharing.Resolve(ctx, viewerLink.Token)
	assert.ErrorIs(t, err, sharing.ErrLinkNotFound)

	// the miss above refills from the database; the revoked row must not
	// re-enter the cache and come back valid on the second resolve
	_, _, err = e.sharing.Resolve(ctx, viewerLink.Token)
	assert.ErrorIs(t, err, sharing.ErrLinkNotFound)
	_, _, err = e.sharing.Join(ctx, viewerLink.Token, guest.ID)
	assert.ErrorIs(t, err, sharing.ErrLinkNotFound)

	// membership survives revocation until the user leaves
	_, role, err = e.projects.Get(ctx, p.ID, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, projects.RoleEditor, role)

	shared, err := e.sharing.SharedWithMe(ctx, guest.ID)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, p.ID, shared[0].ID)

	require.NoError(t, e.sharing.Leave(ctx, p.ID, guest.ID))
	_, _, err = e.projects.Get(ctx, p.ID, guest.ID)
	assert.ErrorIs(t, err, projects.ErrNotFound)

	assert.ErrorIs(t, e.sharing.Leave(ctx, p.ID, owner.ID), sharing.ErrOwnerCantLeave)
}

func TestForkCopiesDefaultHead(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	owner := newUser(t, e, "fb-owner")
	forker := newUser(t, e, "fb-forker")

	p, err := e.projects.Create(ctx, owner.ID, projectsvc.CreateInput{Name: "Template", Public: true})
	require.NoError(t, err)
	content := `{"walls":[1,2,3]}`
	_, snap, err := e.projects.Save(ctx, p.ID, owner.ID, "", content)
	require.NoError(t, err)

	fork, err := e.sharing.Fork(ctx, p.ID, forker.ID)
	require.NoError(t, err)
	assert.Equal(t, forker.ID, fork.OwnerID)
	assert.False(t, fork.Public, "forks start private")

	// the fork's main points at a copy of the source head
	vs, err := e.projects.ListVersions(ctx, fork.ID, forker.ID)
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, snap.ContentHash, vs[0].SnapshotHash)

	_, body, err := e.projects.SnapshotContent(ctx, fork.ID, forker.ID, snap.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, content, body)

	// the owner hears about it
	list, err := e.notifs.List(ctx, owner.ID, 10, nil)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.Equal(t, notifications.KindProjectForked, list[0].Kind)

	// forking again lands on a derived slug
	fork2, err := e.sharing.Fork(ctx, p.ID, forker.ID)
	require.NoError(t, err)
	assert.NotEqual(t, fork.Slug, fork2.Slug)
}

func TestNotificationReadFlow(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	owner := newUser(t, e, "fb-owner")
	guest := newUser(t, e, "fb-guest")

	p, err := e.projects.Create(ctx, owner.ID, projectsvc.CreateInput{Name: "Plan", Public: true})
	require.NoError(t, err)
	link, err := e.sharing.CreateLink(ctx, p.ID, owner.ID, projects.RoleViewer, 0)
	require.NoError(t, err)
	_, _, err = e.sharing.Join(ctx, link.Token, guest.ID)
	require.NoError(t, err)

	list, err := e.notifs.List(ctx, owner.ID, 10, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].ReadAt)

	require.NoError(t, e.notifs.MarkRead(ctx, owner.ID, list[0].ID))
	n, err := e.notifs.UnreadCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	// marking someone else's notification fails
	err = e.notifs.MarkRead(ctx, guest.ID, list[0].ID)
	assert.ErrorIs(t, err, notifications.ErrNotFound)

	// a dead cache never turns a successful mark into an error
	require.NoError(t, e.rdb.Close())
	require.NoError(t, e.notifs.MarkRead(ctx, owner.ID, list[0].ID))
	_, err = e.notifs.MarkAllRead(ctx, owner.ID)
	require.NoError(t, err)
}

func TestNotificationPagination(t *testing.T) {
	e := setupEnv(t)
	ctx := context.Background()

	owner := newUser(t, e, "fb-owner")

	// two rows share a created_at (single-statement now()), one is older
	_, err := e.db.Exec(ctx, `
insert into notifications (user_id, kind, payload, created_at) values
  ($1::uuid, $2, '{}', now() - interval '1 minute'),
  ($1::uuid, $2, '{}', now()),
  ($1::uuid, $2, '{}', now());`, owner.ID, notifications.KindShareJoined)
	require.NoError(t, err)

	first, err := e.notifs.List(ctx, owner.ID, 2, nil)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, first[0].CreatedAt, first[1].CreatedAt, "tied rows fill the first page")

	// the id tiebreaker keeps paging past the tie without skips or repeats
	cursor := &notifications.Cursor{CreatedAt: first[1].CreatedAt, ID: first[1].ID}
	rest, err := e.notifs.List(ctx, owner.ID, 2, cursor)
	require.NoError(t, err)
	require.Len(t, rest, 1)

	seen := map[string]bool{}
	for _, n := range append(first, rest...) {
		assert.False(t, seen[n.ID], "notification %s appeared twice", n.ID)
		seen[n.ID] = true
	}
	assert.Len(t, seen, 3)
}
