package a2a

import "testing"

func TestAppendArtifactAppendTrueConcatenates(t *testing.T) {
	task := NewTask("t1", "c1")
	task.SetState(TaskWorking, nil)
	if err := task.AppendArtifact(Artifact{ArtifactID: "a1", Name: "out", Parts: []Part{NewTextPart("hello ")}}, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := task.AppendArtifact(Artifact{ArtifactID: "a1", Parts: []Part{NewTextPart("world")}}, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(task.Artifacts) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(task.Artifacts))
	}
	got := ConcatText(task.Artifacts[0].Parts)
	if got != "hello  world" {
		t.Errorf("expected concatenated text, got %q", got)
	}
}

func TestAppendArtifactMissingIDFails(t *testing.T) {
	task := NewTask("t1", "c1")
	task.SetState(TaskWorking, nil)
	err := task.AppendArtifact(Artifact{ArtifactID: "missing", Parts: []Part{NewTextPart("x")}}, true)
	if err == nil {
		t.Fatal("expected error for append against missing artifact")
	}
}

func TestRepeatedAppendEquivalentToOneConcatenated(t *testing.T) {
	a := NewTask("t1", "c1")
	a.SetState(TaskWorking, nil)
	a.AppendArtifact(Artifact{ArtifactID: "x", Name: "out"}, false)
	for i := 0; i < 3; i++ {
		a.AppendArtifact(Artifact{ArtifactID: "x", Parts: []Part{NewTextPart("chunk")}}, true)
	}

	b := NewTask("t2", "c2")
	b.SetState(TaskWorking, nil)
	b.AppendArtifact(Artifact{ArtifactID: "x", Name: "out", Parts: []Part{NewTextPart("chunk"), NewTextPart("chunk"), NewTextPart("chunk")}}, false)

	if ConcatText(a.Artifacts[0].Parts) != ConcatText(b.Artifacts[0].Parts) {
		t.Error("n appends should equal one concatenated update")
	}
}

func TestTerminalStateIsImmutable(t *testing.T) {
	task := NewTask("t1", "c1")
	task.SetState(TaskWorking, nil)
	task.AppendArtifact(Artifact{ArtifactID: "a1", Name: "out"}, false)
	task.SetState(TaskCompleted, nil)

	task.SetState(TaskFailed, nil)
	if task.State != TaskCompleted {
		t.Errorf("expected state to remain completed, got %s", task.State)
	}

	err := task.AppendArtifact(Artifact{ArtifactID: "a1", Parts: []Part{NewTextPart("late")}}, true)
	if err != nil {
		t.Fatalf("terminal append should be a silent no-op, got error: %v", err)
	}
	if len(task.Artifacts[0].Parts) != 0 {
		t.Error("terminal task's artifact should not have been mutated")
	}
}

func TestIsTerminal(t *testing.T) {
	cases := map[TaskState]bool{
		TaskSubmitted:     false,
		TaskWorking:       false,
		TaskInputRequired: false,
		TaskCompleted:     true,
		TaskFailed:        true,
		TaskCanceled:      true,
	}
	for state, want := range cases {
		if got := state.IsTerminal(); got != want {
			t.Errorf("state %s: IsTerminal() = %v, want %v", state, got, want)
		}
	}
}
