package main

import "testing"

func TestTimeStepRunsTimersInDeadlineOrder(t *testing.T) {
	cpu, mem, _ := newTestCPU(t)
	sch := NewTime(1000, false)
	sch.Attach(cpu)
	cpu.sch = sch
	// A long run of NOPs so Step(50) has plenty of instructions to execute.
	for i := 0; i < 60; i++ {
		load(mem, uint16(i), 0x00)
	}

	var order []int
	sch.AddTimer(10, func() { order = append(order, 1) })
	sch.AddTimer(4, func() { order = append(order, 2) })

	sch.Step(50)

	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Fatalf("timers fired out of deadline order: %v", order)
	}
}

func TestTimePeriodicTimerReschedules(t *testing.T) {
	cpu, mem, _ := newTestCPU(t)
	sch := NewTime(1000, false)
	sch.Attach(cpu)
	cpu.sch = sch
	for i := 0; i < 400; i++ {
		load(mem, uint16(i), 0x00)
	}

	fired := 0
	sch.AddPeriodicTimer(4, func() { fired++ })
	// Each Step call fires a due timer at most once and reschedules it for
	// now+period, so driving several short bursts exercises the
	// reschedule path the way one long burst would not.
	for i := 0; i < 5; i++ {
		sch.Step(20)
	}

	if fired < 2 {
		t.Fatalf("periodic timer fired %d times over 5 bursts, want at least 2", fired)
	}
}

func TestTimeCancelTimerPreventsFiring(t *testing.T) {
	cpu, mem, _ := newTestCPU(t)
	sch := NewTime(1000, false)
	sch.Attach(cpu)
	cpu.sch = sch
	for i := 0; i < 20; i++ {
		load(mem, uint16(i), 0x00)
	}

	fired := false
	id := sch.AddTimer(2, func() { fired = true })
	sch.CancelTimer(id)
	sch.Step(20)

	if fired {
		t.Error("a cancelled timer still fired")
	}
}

func TestTimeStopHaltsStep(t *testing.T) {
	cpu, mem, _ := newTestCPU(t)
	sch := NewTime(1000, false)
	sch.Attach(cpu)
	cpu.sch = sch
	load(mem, 0, 0x00)
	sch.Stop()
	if ran := sch.Step(10); ran != 0 {
		t.Fatalf("Step ran %d cycles while stopped, want 0", ran)
	}
}
