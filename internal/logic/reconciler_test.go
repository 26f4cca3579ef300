package logic

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"ir-chat/internal/assistant"
	"ir-chat/internal/models"
)

// fakeThreadService is an in-memory stand-in for the remote assistant. Its
// message list is newest first, like the real API.
type fakeThreadService struct {
	messages       []assistant.Message
	reply          []string
	createdThreads int
	appended       []string
	runs           int
	appendErr      error
	runErr         error
	listErr        error
}

func textBlock(value string) []assistant.MessageContent {
	return []assistant.MessageContent{
		{Type: "text", Text: &assistant.TextObject{Value: &value}},
	}
}

func (f *fakeThreadService) CreateThread(ctx context.Context, creds assistant.Credentials) (*assistant.Thread, error) {
	f.createdThreads++
	return &assistant.Thread{ID: "thread_new"}, nil
}

func (f *fakeThreadService) CreateMessage(ctx context.Context, creds assistant.Credentials, threadID, content string) (*assistant.Message, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	f.appended = append(f.appended, content)
	msg := assistant.Message{ID: "msg_user", Role: "user", Content: textBlock(content)}
	f.messages = append([]assistant.Message{msg}, f.messages...)
	return &msg, nil
}

func (f *fakeThreadService) RunToCompletion(ctx context.Context, creds assistant.Credentials, threadID string) error {
	if f.runErr != nil {
		return f.runErr
	}
	f.runs++
	for _, content := range f.reply {
		msg := assistant.Message{ID: "msg_asst", Role: "assistant", Content: textBlock(content)}
		f.messages = append([]assistant.Message{msg}, f.messages...)
	}
	return nil
}

func (f *fakeThreadService) ListMessages(ctx context.Context, creds assistant.Credentials, threadID string) ([]assistant.Message, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.messages, nil
}

type storedRow struct {
	chatID   int64
	threadID string
	role     models.Role
	content  string
}

type fakeStore struct {
	chats     []*models.Chat
	rows      []storedRow
	nextID    int64
	insertErr error
}

func (f *fakeStore) CreateChat(title, userID string, companyID int64) (*models.Chat, error) {
	f.nextID++
	chat := &models.Chat{ID: f.nextID, Title: title, UserID: userID, CompanyID: companyID}
	f.chats = append(f.chats, chat)
	return chat, nil
}

func (f *fakeStore) InsertMessage(chatID int64, threadID string, role models.Role, content string) (*models.StoredMessage, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.rows = append(f.rows, storedRow{chatID: chatID, threadID: threadID, role: role, content: content})
	return &models.StoredMessage{ChatID: chatID, ThreadID: threadID, Role: role, Content: content}, nil
}

var creds = assistant.Credentials{APIKey: "sk-test", AssistantID: "asst_test"}

func TestAdvance_MissingCredentials(t *testing.T) {
	rec := NewReconciler(&fakeThreadService{}, &fakeStore{}, zap.NewNop())

	_, err := rec.Advance(context.Background(), AdvanceInput{UserMessage: "hi"})
	if !errors.Is(err, assistant.ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestAdvance_NewChatMintsIdentifiers(t *testing.T) {
	remote := &fakeThreadService{reply: []string{"The latest drill results show..."}}
	store := &fakeStore{}
	rec := NewReconciler(remote, store, zap.NewNop())

	result, err := rec.Advance(context.Background(), AdvanceInput{
		UserMessage: "What are recent drill results?",
		Credentials: creds,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ChatID == 0 {
		t.Error("expected a newly minted chat id")
	}
	if result.ThreadID != "thread_new" {
		t.Errorf("expected thread 'thread_new', got %q", result.ThreadID)
	}
	if result.UserID == "" {
		t.Error("expected a minted user id when none was supplied")
	}
	if remote.createdThreads != 1 {
		t.Errorf("expected 1 thread creation, got %d", remote.createdThreads)
	}
	if remote.runs != 1 {
		t.Errorf("expected 1 run, got %d", remote.runs)
	}

	if len(result.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d: %v", len(result.Messages), result.Messages)
	}
	if result.Messages[0].Role != models.RoleUser || result.Messages[0].Content != "What are recent drill results?" {
		t.Errorf("expected user entry first, got %v", result.Messages[0])
	}
	if result.Messages[1].Role != models.RoleAssistant {
		t.Errorf("expected assistant entry second, got %v", result.Messages[1])
	}

	if len(store.chats) != 1 {
		t.Fatalf("expected 1 chat created, got %d", len(store.chats))
	}
	if store.chats[0].Title != "What are recent drill results?" {
		t.Errorf("chat title must be the first utterance, got %q", store.chats[0].Title)
	}
}

func TestAdvance_PersistsUserAndPreMergeAssistantRows(t *testing.T) {
	remote := &fakeThreadService{reply: []string{"part one", "part two"}}
	store := &fakeStore{}
	rec := NewReconciler(remote, store, zap.NewNop())

	result, err := rec.Advance(context.Background(), AdvanceInput{
		UserMessage: "Tell me about the pipeline",
		Credentials: creds,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// One user row plus one row per physical assistant message, chronological.
	if len(store.rows) != 3 {
		t.Fatalf("expected 3 persisted rows, got %d", len(store.rows))
	}
	if store.rows[0].role != models.RoleUser {
		t.Errorf("expected user row first, got %s", store.rows[0].role)
	}
	if store.rows[1].content != "part one" || store.rows[2].content != "part two" {
		t.Errorf("assistant rows out of order: %v", store.rows[1:])
	}

	// The returned transcript merges the split reply into one entry.
	if len(result.Messages) != 2 {
		t.Fatalf("expected 2 merged messages, got %d", len(result.Messages))
	}
	if result.Messages[1].Content != "part one\npart two" {
		t.Errorf("expected merged assistant content, got %q", result.Messages[1].Content)
	}
}

func TestAdvance_ReloadSkipsAppendAndRun(t *testing.T) {
	value := "earlier answer"
	remote := &fakeThreadService{
		messages: []assistant.Message{
			{Role: "assistant", Content: textBlock(value)},
			{Role: "user", Content: textBlock("earlier question")},
		},
	}
	store := &fakeStore{}
	rec := NewReconciler(remote, store, zap.NewNop())

	result, err := rec.Advance(context.Background(), AdvanceInput{
		UserMessage: "",
		ChatID:      7,
		ThreadID:    "thread_existing",
		Credentials: creds,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(remote.appended) != 0 {
		t.Errorf("reload must not append remotely, appended %v", remote.appended)
	}
	if remote.runs != 0 {
		t.Errorf("reload must not trigger a run, got %d", remote.runs)
	}
	if len(store.rows) != 0 {
		t.Errorf("reload must not persist rows, got %d", len(store.rows))
	}
	if result.ChatID != 7 || result.ThreadID != "thread_existing" {
		t.Errorf("identifiers must pass through unchanged, got %d/%s", result.ChatID, result.ThreadID)
	}

	if len(result.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(result.Messages))
	}
	if result.Messages[0].Content != "earlier question" {
		t.Errorf("expected chronological order, got %v", result.Messages)
	}
	if len(result.Suggestions) != 0 {
		t.Errorf("reload returns no suggestions, got %v", result.Suggestions)
	}
}

func TestAdvance_EmptyMessageWithoutChatIsNoop(t *testing.T) {
	remote := &fakeThreadService{}
	store := &fakeStore{}
	rec := NewReconciler(remote, store, zap.NewNop())

	result, err := rec.Advance(context.Background(), AdvanceInput{Credentials: creds})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.chats) != 0 {
		t.Errorf("no chat may be created on an empty reload, got %d", len(store.chats))
	}
	if result.ChatID != 0 {
		t.Errorf("expected no chat id, got %d", result.ChatID)
	}
	if len(result.Messages) != 0 {
		t.Errorf("expected empty transcript, got %v", result.Messages)
	}
}

func TestAdvance_ThreeAssistantBlocksThenUser(t *testing.T) {
	// Remote order is newest first: three assistant blocks, then the user
	// utterance that preceded them chronologically.
	remote := &fakeThreadService{
		messages: []assistant.Message{
			{Role: "assistant", Content: textBlock("third")},
			{Role: "assistant", Content: textBlock("second")},
			{Role: "assistant", Content: textBlock("first")},
			{Role: "user", Content: textBlock("the question")},
		},
	}
	rec := NewReconciler(remote, &fakeStore{}, zap.NewNop())

	result, err := rec.Advance(context.Background(), AdvanceInput{
		ChatID:      1,
		ThreadID:    "thread_x",
		Credentials: creds,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Messages) != 2 {
		t.Fatalf("expected 2 entries after merge, got %d: %v", len(result.Messages), result.Messages)
	}
	if result.Messages[0].Role != models.RoleUser || result.Messages[0].Content != "the question" {
		t.Errorf("user entry must sort before the assistant reply, got %v", result.Messages[0])
	}
	if result.Messages[1].Content != "first\nsecond\nthird" {
		t.Errorf("expected newline-joined contents in chronological order, got %q", result.Messages[1].Content)
	}
}

func TestAdvance_PersistenceFailureSurfaces(t *testing.T) {
	remote := &fakeThreadService{reply: []string{"a"}}
	store := &fakeStore{insertErr: errors.New("disk full")}
	rec := NewReconciler(remote, store, zap.NewNop())

	_, err := rec.Advance(context.Background(), AdvanceInput{
		UserMessage: "hello",
		Credentials: creds,
	})
	if err == nil {
		t.Fatal("expected persistence error to abort the call")
	}
	if remote.runs != 0 {
		t.Errorf("run must not start after persistence failed, got %d runs", remote.runs)
	}
}

func TestAdvance_RemoteFailureSurfaces(t *testing.T) {
	remote := &fakeThreadService{runErr: errors.New("rate limited")}
	rec := NewReconciler(remote, &fakeStore{}, zap.NewNop())

	_, err := rec.Advance(context.Background(), AdvanceInput{
		UserMessage: "hello",
		Credentials: creds,
	})
	if err == nil {
		t.Fatal("expected remote error to abort the call")
	}
}

func TestAdvance_CompanySuggestionsPreferred(t *testing.T) {
	remote := &fakeThreadService{reply: []string{"a"}}
	rec := NewReconciler(remote, &fakeStore{}, zap.NewNop())

	configured := []string{"Ask about the Q3 gold production"}
	result, err := rec.Advance(context.Background(), AdvanceInput{
		UserMessage: "hello",
		Credentials: creds,
		Suggestions: configured,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Suggestions) != 1 || result.Suggestions[0] != configured[0] {
		t.Errorf("expected configured suggestions, got %v", result.Suggestions)
	}

	result, err = rec.Advance(context.Background(), AdvanceInput{
		UserMessage: "hello again",
		ChatID:      result.ChatID,
		ThreadID:    result.ThreadID,
		Credentials: creds,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Suggestions) != len(DefaultSuggestions) {
		t.Errorf("expected default suggestions, got %v", result.Suggestions)
	}
}

func TestAdvance_ExistingIdentifiersReused(t *testing.T) {
	remote := &fakeThreadService{reply: []string{"a"}}
	store := &fakeStore{}
	rec := NewReconciler(remote, store, zap.NewNop())

	result, err := rec.Advance(context.Background(), AdvanceInput{
		UserMessage: "follow-up",
		ChatID:      42,
		ThreadID:    "thread_kept",
		UserID:      "visitor-1",
		Credentials: creds,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if remote.createdThreads != 0 {
		t.Errorf("existing thread must be reused, created %d", remote.createdThreads)
	}
	if len(store.chats) != 0 {
		t.Errorf("existing chat must be reused, created %d", len(store.chats))
	}
	if result.ChatID != 42 || result.ThreadID != "thread_kept" || result.UserID != "visitor-1" {
		t.Errorf("identifiers changed: %d/%s/%s", result.ChatID, result.ThreadID, result.UserID)
	}
	if store.rows[0].chatID != 42 || store.rows[0].threadID != "thread_kept" {
		t.Errorf("rows tagged with wrong identifiers: %+v", store.rows[0])
	}
}
