package controller

// Transition applies trigger t to snapshot s and returns the next snapshot
// along with the effects the host must carry out. It never mutates s and
// has no side effects of its own; combinations that make no sense in the
// current state return s unchanged with no effects.
func Transition(s Snapshot, t Trigger, timings Timings) (Snapshot, []Effect) {
	switch t := t.(type) {
	case OpenPicker:
		if s.HasFile() {
			return s, nil
		}
		return s, []Effect{{Kind: EffectOpenPicker}}

	case FileChosen:
		if len(t.Files) == 0 {
			return s, nil
		}
		return selectFile(s, t.Files[0])

	case DragOver:
		if !t.HasFiles || s.HasFile() || s.DropActive {
			return s, nil
		}
		next := s
		next.DropActive = true
		return next, nil

	case DragLeave:
		if !s.DropActive {
			return s, nil
		}
		next := s
		next.DropActive = false
		return next, nil

	case Drop:
		next := s
		next.DropActive = false
		if len(t.Files) == 0 {
			return next, nil
		}
		next, effects := selectFile(next, t.Files[0])
		file := *next.File
		return next, append(effects, Effect{Kind: EffectSyncInput, File: &file})

	case Remove:
		if !s.HasFile() {
			return s, nil
		}
		next := Snapshot{State: StateEmpty, Control: ControlIdle, Run: s.Run}
		if s.runLive() {
			return next, []Effect{{Kind: EffectCancel, Run: s.Run}}
		}
		return next, nil

	case Analyze:
		if !s.HasFile() || s.Control != ControlIdle {
			return s, nil
		}
		next := s
		next.State = StateAnalyzing
		next.Control = ControlBusy
		next.Run = s.Run + 1
		return next, []Effect{{Kind: EffectSchedule, Run: next.Run, Stage: StageReveal, Delay: timings.Reveal}}

	case Elapsed:
		if t.Run != s.Run {
			return s, nil
		}
		return elapse(s, t.Stage, timings)
	}

	return s, nil
}

func selectFile(s Snapshot, file SelectedFile) (Snapshot, []Effect) {
	if file.Size < 0 {
		file.Size = 0
	}
	next := Snapshot{
		State:   StateFileSelected,
		File:    &file,
		Control: ControlIdle,
		Run:     s.Run,
	}
	if s.runLive() {
		return next, []Effect{{Kind: EffectCancel, Run: s.Run}}
	}
	return next, nil
}

func elapse(s Snapshot, stage Stage, timings Timings) (Snapshot, []Effect) {
	switch stage {
	case StageReveal:
		if s.State != StateAnalyzing {
			return s, nil
		}
		next := s
		next.State = StateAnalyzed
		next.ResultsVisible = true
		next.Control = ControlDone
		return next, []Effect{
			{Kind: EffectScrollResults},
			{Kind: EffectSchedule, Run: s.Run, Stage: StageReset, Delay: timings.Reset},
		}
	case StageReset:
		if s.State != StateAnalyzed || s.Control != ControlDone {
			return s, nil
		}
		next := s
		next.Control = ControlIdle
		return next, nil
	}
	return s, nil
}
