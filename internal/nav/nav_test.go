package nav

import (
	"testing"
	"time"
)

func TestBus_DeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	_, a := bus.Subscribe()
	_, b := bus.Subscribe()

	bus.Publish(NewEvent(IntersectionDetected))

	for name, ch := range map[string]<-chan Event{"a": a, "b": b} {
		select {
		case evt := <-ch:
			if evt.Kind != IntersectionDetected {
				t.Errorf("%s received %v", name, evt)
			}
		case <-time.After(time.Second):
			t.Errorf("%s received nothing", name)
		}
	}
}

func TestBus_LatestWins(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	_, ch := bus.Subscribe()

	bus.Publish(NewEvent(IntersectionDetected))
	bus.Publish(NewEvent(ParkingLotLeftDetected))
	bus.Publish(Approaching(0.12))

	evt := <-ch
	if evt.Kind != ApproachingObject || evt.Distance != 0.12 {
		t.Errorf("received %v, want approaching_object(0.120m)", evt)
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected queued event %v", extra)
	default:
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	id, ch := bus.Subscribe()
	bus.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
	// Publishing with no subscribers must not panic.
	bus.Publish(NewEvent(AllClear))
	bus.Close()

	_, late := bus.Subscribe()
	if _, ok := <-late; ok {
		t.Error("subscription after Close should be closed")
	}
}

func TestRecord(t *testing.T) {
	tests := []struct {
		action Action
		want   ActionRecord
	}{
		{LineFollow{Sequence: 2, From: "I01", To: "L01A"}, ActionRecord{Kind: KindLineFollow, Seq: 2, From: "I01", To: "L01A"}},
		{Intersection{Sequence: 1, Angle: -90}, ActionRecord{Kind: KindIntersection, Seq: 1, Angle: -90}},
		{Park{Sequence: 3, Spots: 3, Side: SideLeft}, ActionRecord{Kind: KindPark, Seq: 3, Spots: 3, Side: "left"}},
		{Pullout{Sequence: 4, Side: SideRight}, ActionRecord{Kind: KindPullout, Seq: 4, Side: "right"}},
		{Celebrate{Sequence: 9}, ActionRecord{Kind: KindCelebrate, Seq: 9}},
	}

	for _, tt := range tests {
		t.Run(string(tt.action.Kind()), func(t *testing.T) {
			if got := Record(tt.action); got != tt.want {
				t.Errorf("Record() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseSide(t *testing.T) {
	if s, err := ParseSide("Left"); err != nil || s != SideLeft {
		t.Errorf("ParseSide(Left) = %v, %v", s, err)
	}
	if s, err := ParseSide("right"); err != nil || s != SideRight {
		t.Errorf("ParseSide(right) = %v, %v", s, err)
	}
	if _, err := ParseSide("up"); err == nil {
		t.Error("ParseSide(up) expected error")
	}
	if SideLeft.Sign() != -1 || SideRight.Sign() != 1 || SideNone.Sign() != 0 {
		t.Error("Side.Sign() mismatch")
	}
}

func TestEventKind_String(t *testing.T) {
	if IntersectionDetected.String() != "intersection_detected" {
		t.Errorf("String() = %q", IntersectionDetected.String())
	}
	if EventKind(99).String() != "event(99)" {
		t.Errorf("unknown String() = %q", EventKind(99).String())
	}
	if !AllClear.IsCollision() || Parked.IsCollision() {
		t.Error("IsCollision() mismatch")
	}
}
