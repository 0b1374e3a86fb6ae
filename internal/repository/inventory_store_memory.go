package repository

import (
	"bytes"
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"keybot/keyhub/internal/model"
)

// memoryState is the full inventory held by the in-memory backend.
// Units of work operate on a clone and publish it on commit.
type memoryState struct {
	titles  map[string]model.Title
	members map[string]model.Member
	guilds  map[string]model.Guild
	links   map[string]map[string]time.Time // guild id -> member id -> joined at
	keys    map[uuid.UUID]model.Key
}

func newMemoryState() *memoryState {
	return &memoryState{
		titles:  make(map[string]model.Title),
		members: make(map[string]model.Member),
		guilds:  make(map[string]model.Guild),
		links:   make(map[string]map[string]time.Time),
		keys:    make(map[uuid.UUID]model.Key),
	}
}

func (s *memoryState) clone() *memoryState {
	c := newMemoryState()
	for k, v := range s.titles {
		c.titles[k] = v
	}
	for k, v := range s.members {
		if v.LastClaimAt != nil {
			at := *v.LastClaimAt
			v.LastClaimAt = &at
		}
		c.members[k] = v
	}
	for k, v := range s.guilds {
		c.guilds[k] = v
	}
	for guildID, members := range s.links {
		m := make(map[string]time.Time, len(members))
		for k, v := range members {
			m[k] = v
		}
		c.links[guildID] = m
	}
	for k, v := range s.keys {
		c.keys[k] = v
	}
	return c
}

type memoryInventoryStore struct {
	state *memoryState
	now   func() time.Time
}

func (r *memoryInventoryStore) GetOrCreateMember(ctx context.Context, id string) (*model.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	member, ok := r.state.members[id]
	if !ok {
		now := r.now()
		member = model.Member{ID: id, CreatedAt: now, UpdatedAt: now}
		r.state.members[id] = member
	}
	return copyMember(member), nil
}

func (r *memoryInventoryStore) GetMember(ctx context.Context, id string) (*model.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	member, ok := r.state.members[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyMember(member), nil
}

// GetMemberForUpdate is GetMember: units of work on this backend never overlap.
func (r *memoryInventoryStore) GetMemberForUpdate(ctx context.Context, id string) (*model.Member, error) {
	return r.GetMember(ctx, id)
}

func (r *memoryInventoryStore) GetOrCreateGuild(ctx context.Context, id string) (*model.Guild, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	guild, ok := r.state.guilds[id]
	if !ok {
		guild = model.Guild{ID: id, CreatedAt: r.now()}
		r.state.guilds[id] = guild
	}
	return &guild, nil
}

func (r *memoryInventoryStore) GetOrCreateTitle(ctx context.Context, name string) (*model.Title, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	title, ok := r.state.titles[name]
	if !ok {
		title = model.Title{ID: uuid.New(), Name: name, CreatedAt: r.now()}
		r.state.titles[name] = title
	}
	return &title, nil
}

func (r *memoryInventoryStore) GetTitle(ctx context.Context, name string) (*model.Title, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	title, ok := r.state.titles[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &title, nil
}

func (r *memoryInventoryStore) MemberHasCode(ctx context.Context, memberID, code string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	for _, key := range r.state.keys {
		if key.OwnerID == memberID && key.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryInventoryStore) AddKey(ctx context.Context, key *model.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	if _, exists := r.state.keys[key.ID]; exists {
		return ErrAlreadyExists
	}
	title, ok := r.titleByID(key.TitleID)
	if !ok {
		return ErrNotFound
	}
	key.Title = title
	now := r.now()
	key.CreatedAt, key.UpdatedAt = now, now
	r.state.keys[key.ID] = *key
	return nil
}

func (r *memoryInventoryStore) RemoveKey(ctx context.Context, memberID, code string) (*model.Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, key := range r.sortedKeys(func(k model.Key) bool { return k.OwnerID == memberID && k.Code == code }) {
		delete(r.state.keys, key.ID)
		return &key, nil
	}
	return nil, ErrNotFound
}

func (r *memoryInventoryStore) ListMemberKeys(ctx context.Context, memberID string) ([]model.Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.sortedKeys(func(k model.Key) bool { return k.OwnerID == memberID }), nil
}

func (r *memoryInventoryStore) ListGuildKeys(ctx context.Context, guildID string) ([]model.Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	members := r.state.links[guildID]
	return r.sortedKeys(func(k model.Key) bool {
		_, ok := members[k.OwnerID]
		return ok
	}), nil
}

func (r *memoryInventoryStore) AddGuildMember(ctx context.Context, guildID, memberID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	members, ok := r.state.links[guildID]
	if !ok {
		members = make(map[string]time.Time)
		r.state.links[guildID] = members
	}
	if _, exists := members[memberID]; exists {
		return ErrAlreadyExists
	}
	members[memberID] = r.now()
	return nil
}

func (r *memoryInventoryStore) RemoveGuildMember(ctx context.Context, guildID, memberID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, exists := r.state.links[guildID][memberID]; !exists {
		return ErrNotFound
	}
	delete(r.state.links[guildID], memberID)
	return nil
}

func (r *memoryInventoryStore) IsGuildMember(ctx context.Context, guildID, memberID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, ok := r.state.links[guildID][memberID]
	return ok, nil
}

func (r *memoryInventoryStore) ListGuildMembers(ctx context.Context, guildID string) ([]model.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	members := make([]model.Member, 0, len(r.state.links[guildID]))
	for id := range r.state.links[guildID] {
		if member, ok := r.state.members[id]; ok {
			members = append(members, *copyMember(member))
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

func (r *memoryInventoryStore) FindMemberKey(
	ctx context.Context, memberID, titleName string, platform model.Platform,
) (*model.Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keys := r.sortedKeys(func(k model.Key) bool {
		return k.OwnerID == memberID && k.Title.Name == titleName && k.Platform == platform
	})
	if len(keys) == 0 {
		return nil, ErrNotFound
	}
	return &keys[0], nil
}

func (r *memoryInventoryStore) FindGuildPoolKeys(
	ctx context.Context, guildID, titleName string, platform model.Platform, excludeMemberID string,
) ([]model.Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	members := r.state.links[guildID]
	return r.sortedKeys(func(k model.Key) bool {
		if k.OwnerID == excludeMemberID || k.Title.Name != titleName || k.Platform != platform {
			return false
		}
		_, ok := members[k.OwnerID]
		return ok
	}), nil
}

func (r *memoryInventoryStore) TransferOwnership(ctx context.Context, keyID uuid.UUID, fromMemberID, toMemberID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, ok := r.state.keys[keyID]
	if !ok || key.OwnerID != fromMemberID {
		return ErrOwnershipConflict
	}
	key.OwnerID = toMemberID
	key.UpdatedAt = r.now()
	r.state.keys[keyID] = key
	return nil
}

func (r *memoryInventoryStore) UpdateLastClaim(ctx context.Context, memberID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	member, ok := r.state.members[memberID]
	if !ok {
		return nil
	}
	if member.LastClaimAt != nil && !member.LastClaimAt.Before(at) {
		return nil
	}
	member.LastClaimAt = &at
	member.UpdatedAt = r.now()
	r.state.members[memberID] = member
	return nil
}

// sortedKeys returns the matching keys ordered by id, the same order the SQL store uses.
func (r *memoryInventoryStore) sortedKeys(match func(model.Key) bool) []model.Key {
	keys := make([]model.Key, 0)
	for _, key := range r.state.keys {
		if match(key) {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i].ID[:], keys[j].ID[:]) < 0 })
	return keys
}

func (r *memoryInventoryStore) titleByID(id uuid.UUID) (model.Title, bool) {
	for _, title := range r.state.titles {
		if title.ID == id {
			return title, true
		}
	}
	return model.Title{}, false
}

func copyMember(m model.Member) *model.Member {
	if m.LastClaimAt != nil {
		at := *m.LastClaimAt
		m.LastClaimAt = &at
	}
	return &m
}
