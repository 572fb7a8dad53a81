package relay

// roomDirectory maps room ids to ordered member lists (insertion order = join
// order, no duplicates). A room exists iff its member list is non-empty; the
// directory owns the paired chat log's lifetime so room and log are created
// and destroyed together.
//
// Not self-locking: the Coordinator serializes all access.
type roomDirectory struct {
	members map[string][]string
	logs    *chatLogStore
}

func newRoomDirectory(logs *chatLogStore) *roomDirectory {
	return &roomDirectory{
		members: make(map[string][]string),
		logs:    logs,
	}
}

// getOrCreate returns the room's current member list and whether the room was
// newly created. Creation also allocates the room's chat log.
func (d *roomDirectory) getOrCreate(roomID string) (members []string, created bool) {
	members, ok := d.members[roomID]
	if ok {
		return members, false
	}
	d.members[roomID] = []string{}
	d.logs.createRoom(roomID)
	return nil, true
}

// join appends connID to the room, creating it first if needed. The returned
// snapshot is the member list as it was immediately before the append (the
// "existing peers"). Joining a room the connection is already in leaves the
// member list unchanged.
func (d *roomDirectory) join(roomID, connID string) (existing []string, created bool) {
	members, created := d.getOrCreate(roomID)

	existing = make([]string, len(members))
	copy(existing, members)

	for _, id := range members {
		if id == connID {
			return existing, created
		}
	}
	d.members[roomID] = append(members, connID)
	return existing, created
}

// findRoomOf returns the room containing connID. A connection is in at most
// one room at a time.
func (d *roomDirectory) findRoomOf(connID string) (roomID string, ok bool) {
	for roomID, members := range d.members {
		for _, id := range members {
			if id == connID {
				return roomID, true
			}
		}
	}
	return "", false
}

// membersOf returns a copy of the room's current member list.
func (d *roomDirectory) membersOf(roomID string) []string {
	members := d.members[roomID]
	if len(members) == 0 {
		return nil
	}
	out := make([]string, len(members))
	copy(out, members)
	return out
}

// leave removes connID from the room. The returned snapshot holds the other
// members as they were at removal time, for the caller to notify. When the
// last member leaves, the room and its chat log are destroyed in the same
// step, so an empty room is never observable.
func (d *roomDirectory) leave(roomID, connID string) (remaining []string, destroyed bool) {
	members, ok := d.members[roomID]
	if !ok {
		return nil, false
	}

	kept := make([]string, 0, len(members))
	for _, id := range members {
		if id != connID {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(members) {
		// Not a member; nothing to do.
		return kept, false
	}

	if len(kept) == 0 {
		delete(d.members, roomID)
		d.logs.dropRoom(roomID)
		return nil, true
	}
	d.members[roomID] = kept
	return kept, false
}

func (d *roomDirectory) size() int {
	return len(d.members)
}
