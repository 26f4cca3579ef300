package logic

import (
	"reflect"
	"testing"

	"ir-chat/internal/models"
)

func user(content string) ChatMessage {
	return ChatMessage{Role: models.RoleUser, Content: content}
}

func asst(content string) ChatMessage {
	return ChatMessage{Role: models.RoleAssistant, Content: content}
}

func TestMerge_Empty(t *testing.T) {
	got := MergeAssistantMessages(nil)
	if len(got) != 0 {
		t.Errorf("expected empty result, got %d entries", len(got))
	}
}

func TestMerge_AdjacentAssistantsCollapse(t *testing.T) {
	in := []ChatMessage{user("q"), asst("a"), asst("b"), asst("c")}
	want := []ChatMessage{user("q"), asst("a\nb\nc")}

	got := MergeAssistantMessages(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestMerge_UserMessagesNeverCombined(t *testing.T) {
	in := []ChatMessage{user("q1"), user("q2"), asst("a"), user("q3")}
	want := []ChatMessage{user("q1"), user("q2"), asst("a"), user("q3")}

	got := MergeAssistantMessages(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestMerge_UserBreaksAssistantRun(t *testing.T) {
	in := []ChatMessage{asst("a"), user("q"), asst("b"), asst("c")}
	want := []ChatMessage{asst("a"), user("q"), asst("b\nc")}

	got := MergeAssistantMessages(in)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestMerge_OutputNeverLongerThanInput(t *testing.T) {
	sequences := [][]ChatMessage{
		{user("a")},
		{asst("a")},
		{asst("a"), asst("b")},
		{user("a"), asst("b"), asst("c"), user("d"), asst("e")},
		{asst("a"), asst("b"), asst("c"), asst("d")},
	}

	for _, in := range sequences {
		got := MergeAssistantMessages(in)
		if len(got) > len(in) {
			t.Errorf("merge grew a sequence: input %d entries, output %d", len(in), len(got))
		}
	}
}

func TestMerge_Idempotent(t *testing.T) {
	in := []ChatMessage{user("q"), asst("a"), asst("b"), user("q2"), asst("c"), asst("d")}

	once := MergeAssistantMessages(in)
	twice := MergeAssistantMessages(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("merge is not idempotent: first %v, second %v", once, twice)
	}

	// No adjacent assistant entries may survive one pass.
	for i := 1; i < len(once); i++ {
		if once[i].Role == models.RoleAssistant && once[i-1].Role == models.RoleAssistant {
			t.Errorf("adjacent assistant entries remain at %d", i)
		}
	}
}

func TestMerge_PreservesUserOrder(t *testing.T) {
	in := []ChatMessage{user("1"), asst("x"), user("2"), asst("y"), asst("z"), user("3")}

	got := MergeAssistantMessages(in)

	var users []string
	for _, m := range got {
		if m.Role == models.RoleUser {
			users = append(users, m.Content)
		}
	}
	if !reflect.DeepEqual(users, []string{"1", "2", "3"}) {
		t.Errorf("user order changed: %v", users)
	}
}
