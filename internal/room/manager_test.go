package room

import (
	"context"
	"errors"
	"sync"
	"testing"

	"minigames/internal/domain"
	"minigames/internal/game"
	"minigames/internal/notify"
	"minigames/internal/store"
)

func newTestManager() *Manager {
	return NewManager(store.NewMemoryStore(), notify.NewMemoryNotifier(), 3)
}

func TestCreateRoom(t *testing.T) {
	m := newTestManager()
	r, err := m.CreateRoom(context.Background(), domain.GameGomoku)
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if r.ID == "" || r.Phase != domain.PhaseWaiting || r.Version != 1 {
		t.Fatalf("room = %+v; want waiting room at version 1", r)
	}
	if r.Players[0] != "" || r.Players[1] != "" {
		t.Fatalf("players = %v; want empty slots", r.Players)
	}
}

func TestCreateRoomUnknownType(t *testing.T) {
	m := newTestManager()
	if _, err := m.CreateRoom(context.Background(), domain.GameType("chess")); err == nil {
		t.Fatal("expected error for unknown game type")
	}
}

func TestJoinRoomAssignsSlotsInOrder(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	r, _ := m.CreateRoom(ctx, domain.GameGomoku)

	slot, cur, err := m.JoinRoom(ctx, r.ID, "p1")
	if err != nil || slot != domain.SlotA {
		t.Fatalf("first join: slot=%d err=%v; want slot 0", slot, err)
	}
	if cur.Phase != domain.PhaseWaiting {
		t.Fatalf("phase after one join = %s; want waiting", cur.Phase)
	}

	slot, cur, err = m.JoinRoom(ctx, r.ID, "p2")
	if err != nil || slot != domain.SlotB {
		t.Fatalf("second join: slot=%d err=%v; want slot 1", slot, err)
	}
	// Second player in: gomoku goes straight to playing.
	if cur.Phase != domain.PhasePlaying || cur.State == nil {
		t.Fatalf("phase=%s state=%v; want playing with state", cur.Phase, cur.State != nil)
	}

	if _, _, err := m.JoinRoom(ctx, r.ID, "p3"); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("third join: err = %v; want ErrRoomFull", err)
	}
}

func TestJoinRoomIdempotent(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	r, _ := m.CreateRoom(ctx, domain.GameGomoku)

	slot1, cur1, err := m.JoinRoom(ctx, r.ID, "p1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	slot2, cur2, err := m.JoinRoom(ctx, r.ID, "p1")
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if slot1 != slot2 {
		t.Fatalf("rejoin slot = %d; want %d", slot2, slot1)
	}
	if cur2.Version != cur1.Version {
		t.Fatalf("rejoin bumped version %d -> %d", cur1.Version, cur2.Version)
	}
}

func TestJoinRoomNotFound(t *testing.T) {
	m := newTestManager()
	if _, _, err := m.JoinRoom(context.Background(), "nope", "p1"); !errors.Is(err, store.ErrRoomNotFound) {
		t.Fatalf("err = %v; want ErrRoomNotFound", err)
	}
}

// Two distinct players race for the single remaining slot: exactly one may
// claim it, the other gets RoomFull. The claim rides the conditional write,
// so the store can never hold the same slot for both.
func TestJoinRaceSingleSlot(t *testing.T) {
	for i := 0; i < 50; i++ {
		m := newTestManager()
		ctx := context.Background()
		r, _ := m.CreateRoom(ctx, domain.GameGomoku)
		if _, _, err := m.JoinRoom(ctx, r.ID, "p1"); err != nil {
			t.Fatalf("setup join: %v", err)
		}

		type result struct {
			slot int
			err  error
		}
		results := make(chan result, 2)
		var wg sync.WaitGroup
		for _, pid := range []string{"p2", "p3"} {
			wg.Add(1)
			go func(pid string) {
				defer wg.Done()
				slot, _, err := m.JoinRoom(ctx, r.ID, pid)
				results <- result{slot, err}
			}(pid)
		}
		wg.Wait()
		close(results)

		var wins, fulls int
		for res := range results {
			switch {
			case res.err == nil:
				wins++
				if res.slot != domain.SlotB {
					t.Fatalf("winner claimed slot %d; want 1", res.slot)
				}
			case errors.Is(res.err, ErrRoomFull):
				fulls++
			default:
				t.Fatalf("unexpected join error: %v", res.err)
			}
		}
		if wins != 1 || fulls != 1 {
			t.Fatalf("wins=%d fulls=%d; want exactly one of each", wins, fulls)
		}

		final, _ := m.GetRoom(ctx, r.ID)
		if final.Players[0] == final.Players[1] {
			t.Fatalf("duplicate player in both slots: %v", final.Players)
		}
	}
}

func TestJoinRaceBothSlotsEmpty(t *testing.T) {
	for i := 0; i < 50; i++ {
		m := newTestManager()
		ctx := context.Background()
		r, _ := m.CreateRoom(ctx, domain.GameGomoku)

		var wg sync.WaitGroup
		slots := make(chan int, 2)
		for _, pid := range []string{"p1", "p2"} {
			wg.Add(1)
			go func(pid string) {
				defer wg.Done()
				slot, _, err := m.JoinRoom(ctx, r.ID, pid)
				if err != nil {
					t.Errorf("join %s: %v", pid, err)
					return
				}
				slots <- slot
			}(pid)
		}
		wg.Wait()
		close(slots)

		seen := map[int]bool{}
		for s := range slots {
			if seen[s] {
				t.Fatalf("slot %d claimed twice", s)
			}
			seen[s] = true
		}
	}
}

func TestVersionIncrementsByOnePerCommit(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	r, _ := m.CreateRoom(ctx, domain.GamePoisonCandy)

	_, r1, _ := m.JoinRoom(ctx, r.ID, "p1")
	if r1.Version != r.Version+1 {
		t.Fatalf("version after join = %d; want %d", r1.Version, r.Version+1)
	}
	_, r2, _ := m.JoinRoom(ctx, r.ID, "p2")
	if r2.Version != r1.Version+1 {
		t.Fatalf("version after second join = %d; want %d", r2.Version, r1.Version+1)
	}

	// A rejected action must not bump the version.
	_, err := m.Act(ctx, r.ID, "p2", game.Action{Type: game.ActChoosePoison, Index: 3})
	if !errors.Is(err, game.ErrNotYourTurn) {
		t.Fatalf("err = %v; want ErrNotYourTurn", err)
	}
	cur, _ := m.GetRoom(ctx, r.ID)
	if cur.Version != r2.Version {
		t.Fatalf("failed action bumped version %d -> %d", r2.Version, cur.Version)
	}
}

func TestActNoOpSkipsCommit(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	r, _ := m.CreateRoom(ctx, domain.GameReaction)
	m.JoinRoom(ctx, r.ID, "p1")
	_, cur, _ := m.JoinRoom(ctx, r.ID, "p2")

	first, err := m.Act(ctx, r.ID, "p1", game.Action{Type: game.ActSetReady})
	if err != nil {
		t.Fatalf("ready: %v", err)
	}
	if first.Version != cur.Version+1 {
		t.Fatalf("ready version = %d; want %d", first.Version, cur.Version+1)
	}

	again, err := m.Act(ctx, r.ID, "p1", game.Action{Type: game.ActSetReady})
	if err != nil {
		t.Fatalf("duplicate ready: %v", err)
	}
	if again.Version != first.Version {
		t.Fatalf("duplicate ready bumped version %d -> %d", first.Version, again.Version)
	}
}

func TestActBeforeBothPlayersJoined(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	r, _ := m.CreateRoom(ctx, domain.GameGomoku)
	m.JoinRoom(ctx, r.ID, "p1")

	if _, err := m.Act(ctx, r.ID, "p1", game.Action{Type: game.ActPlacePiece, Row: 7, Col: 7}); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("err = %v; want ErrInvalidPhase", err)
	}
}

func TestActNonMember(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	r, _ := m.CreateRoom(ctx, domain.GameGomoku)
	m.JoinRoom(ctx, r.ID, "p1")
	m.JoinRoom(ctx, r.ID, "p2")

	if _, err := m.Act(ctx, r.ID, "intruder", game.Action{Type: game.ActPlacePiece, Row: 0, Col: 0}); !errors.Is(err, game.ErrNotYourTurn) {
		t.Fatalf("err = %v; want ErrNotYourTurn", err)
	}
}

// The full scenario from the poison candy game: setup picks, then stepping
// on the opponent's pick loses the game for the clicker.
func TestPoisonCandyEndToEnd(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	r, _ := m.CreateRoom(ctx, domain.GamePoisonCandy)

	if slot, _, err := m.JoinRoom(ctx, r.ID, "p1"); err != nil || slot != domain.SlotA {
		t.Fatalf("join p1: slot=%d err=%v", slot, err)
	}
	if slot, cur, err := m.JoinRoom(ctx, r.ID, "p2"); err != nil || slot != domain.SlotB || cur.Phase != domain.PhaseSetup {
		t.Fatalf("join p2: slot=%d phase=%s err=%v", slot, cur.Phase, err)
	}

	cur, err := m.Act(ctx, r.ID, "p1", game.Action{Type: game.ActChoosePoison, Index: 3})
	if err != nil || cur.Phase != domain.PhaseSetup {
		t.Fatalf("p1 pick: phase=%s err=%v", cur.Phase, err)
	}
	cur, err = m.Act(ctx, r.ID, "p2", game.Action{Type: game.ActChoosePoison, Index: 7})
	if err != nil || cur.Phase != domain.PhasePlaying {
		t.Fatalf("p2 pick: phase=%s err=%v", cur.Phase, err)
	}

	// p1 clicks index 7, the candy p2 chose: p2 wins.
	cur, err = m.Act(ctx, r.ID, "p1", game.Action{Type: game.ActClickCandy, Index: 7})
	if err != nil {
		t.Fatalf("p1 click: %v", err)
	}
	if cur.Phase != domain.PhaseFinished {
		t.Fatalf("phase = %s; want finished", cur.Phase)
	}
	if cur.Winner == nil || cur.Players[*cur.Winner] != "p2" {
		t.Fatalf("winner = %v; want p2's slot", cur.Winner)
	}

	// Terminal guard: no further clicks.
	if _, err := m.Act(ctx, r.ID, "p2", game.Action{Type: game.ActClickCandy, Index: 1}); !errors.Is(err, game.ErrGameAlreadyEnded) {
		t.Fatalf("click after finish: err = %v; want ErrGameAlreadyEnded", err)
	}
}

func TestResetRoom(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	r, _ := m.CreateRoom(ctx, domain.GamePoisonCandy)
	m.JoinRoom(ctx, r.ID, "p1")
	m.JoinRoom(ctx, r.ID, "p2")

	// Reset before finish is rejected.
	if _, err := m.ResetRoom(ctx, r.ID); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("early reset: err = %v; want ErrInvalidPhase", err)
	}

	m.Act(ctx, r.ID, "p1", game.Action{Type: game.ActChoosePoison, Index: 3})
	m.Act(ctx, r.ID, "p2", game.Action{Type: game.ActChoosePoison, Index: 7})
	finished, err := m.Act(ctx, r.ID, "p1", game.Action{Type: game.ActClickCandy, Index: 7})
	if err != nil || finished.Phase != domain.PhaseFinished {
		t.Fatalf("finish game: phase=%s err=%v", finished.Phase, err)
	}

	reset, err := m.ResetRoom(ctx, r.ID)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if reset.Phase != domain.PhaseSetup || reset.Winner != nil {
		t.Fatalf("after reset: phase=%s winner=%v; want setup, none", reset.Phase, reset.Winner)
	}
	if reset.ID != r.ID || reset.Players != finished.Players {
		t.Fatalf("reset changed id or players: %s %v", reset.ID, reset.Players)
	}
	if reset.Version != finished.Version+1 {
		t.Fatalf("reset version = %d; want %d", reset.Version, finished.Version+1)
	}
}

func TestSubscribeDeliversCommitsInOrder(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	r, _ := m.CreateRoom(ctx, domain.GameGomoku)

	versions := make(chan int64, 16)
	sub, err := m.Subscribe(ctx, r.ID, func(room domain.Room) {
		versions <- room.Version
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	m.JoinRoom(ctx, r.ID, "p1")
	m.JoinRoom(ctx, r.ID, "p2")
	m.Act(ctx, r.ID, "p1", game.Action{Type: game.ActPlacePiece, Row: 7, Col: 7})

	var last int64
	for i := 0; i < 3; i++ {
		v := <-versions
		if v <= last {
			t.Fatalf("snapshot version %d not greater than previous %d", v, last)
		}
		last = v
	}
}

func TestSubscribeUnknownRoom(t *testing.T) {
	m := newTestManager()
	if _, err := m.Subscribe(context.Background(), "nope", func(domain.Room) {}); !errors.Is(err, store.ErrRoomNotFound) {
		t.Fatalf("err = %v; want ErrRoomNotFound", err)
	}
}
