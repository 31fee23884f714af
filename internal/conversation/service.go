package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/talkboard/internal/model"
	"github.com/hitoshi/talkboard/internal/repository"
)

// mentionNotificationsEnabled は未登録ユーザーへのメンション通知の有効フラグ。
// プロバイダーへの外部投稿になるため現在は無効。通知文の組み立てまでは行う。
const mentionNotificationsEnabled = false

// latestParticipantLimit は一覧に載せる直近参加者の件数。
const latestParticipantLimit = 5

// MetricsRecorder は会話関連メトリクスの記録インターフェース。
type MetricsRecorder interface {
	RecordStatusPosted()
	RecordConversationCreated()
}

// PostResult は投稿結果を表す。
type PostResult struct {
	ConversationID int64
	StatusID       int64
	// Created は新しい会話が作られた場合にtrue。
	// 既存会話への追記の場合、ハンドラーは会話詳細へリダイレクトする。
	Created bool
}

// Summary は一覧向けに非正規化フィールドを集めた会話1件を表す。
type Summary struct {
	ConversationID   int64
	Status           string
	UserName         string
	UpdatedTime      string
	ParticipantCount int64
	LatestUsers      []string
	StatusCount      int64
	User             *model.User
}

// StatusEntry は詳細向けにユーザー情報を付加したステータス1件を表す。
type StatusEntry struct {
	StatusID    int64
	Status      string
	UserName    string
	CreatedTime string
	User        *model.User
}

// Detail は会話詳細を表す。
type Detail struct {
	ConversationID   int64
	Status           string
	UserName         string
	UpdatedTime      string
	ParticipantCount int64
	AllUsers         []string
	StatusCount      int64
	ReadCount        int64
	Statuses         []*StatusEntry
}

// Service は会話に関するビジネスロジックを提供する。
type Service struct {
	convRepo   repository.ConversationRepository
	statusRepo repository.StatusRepository
	userRepo   repository.UserRepository
	metrics    MetricsRecorder
}

// NewService はServiceを生成する。
func NewService(
	convRepo repository.ConversationRepository,
	statusRepo repository.StatusRepository,
	userRepo repository.UserRepository,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		convRepo:   convRepo,
		statusRepo: statusRepo,
		userRepo:   userRepo,
		metrics:    metrics,
	}
}

// Post はステータスを投稿する。conversationIDが0の場合は新しい会話を開始する。
//
// ストアへの書き込みは複数操作にまたがるがトランザクションは張らない。
// ステータスレコードはアクセス権チェックより先に書かれるため、
// Forbiddenで失敗してもステータスレコード自体は残る。
func (s *Service) Post(ctx context.Context, actor *model.User, conversationID int64, statusText string) (*PostResult, error) {
	if strings.TrimSpace(statusText) == "" {
		return nil, model.NewStatusRequiredError()
	}

	// 1. ステータスIDを採番してレコードを保存
	statusID, err := s.statusRepo.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate status id: %w", err)
	}
	status := &model.Status{
		ID:          statusID,
		CreatedTime: nowUnix(),
		Text:        statusText,
		UserName:    actor.Name,
	}
	if err := s.statusRepo.Create(ctx, status); err != nil {
		return nil, fmt.Errorf("failed to create status: %w", err)
	}

	// 2. 会話への紐付け（既存会話はアクセス権を要求、なければ新規作成）
	created := false
	if conversationID != 0 {
		ok, err := s.convRepo.HasAccess(ctx, conversationID, actor.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to check access: %w", err)
		}
		if !ok {
			return nil, model.NewConversationForbiddenError(conversationID)
		}
		preview := &model.Conversation{
			ID:          conversationID,
			UpdatedTime: nowUnix(),
			Status:      statusText,
			UserName:    actor.Name,
		}
		if err := s.convRepo.SavePreview(ctx, preview); err != nil {
			return nil, fmt.Errorf("failed to update conversation preview: %w", err)
		}
	} else {
		conversationID, err = s.convRepo.NextID(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate conversation id: %w", err)
		}
		created = true
		preview := &model.Conversation{
			ID:          conversationID,
			UpdatedTime: nowUnix(),
			Status:      statusText,
			UserName:    actor.Name,
		}
		if err := s.convRepo.SavePreview(ctx, preview); err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
		if err := s.convRepo.GrantAccess(ctx, conversationID, actor.Name, nowUnix()); err != nil {
			return nil, fmt.Errorf("failed to grant access: %w", err)
		}
		if s.metrics != nil {
			s.metrics.RecordConversationCreated()
		}
	}

	// 3. 投稿者のフィードを先頭に上げ、ステータスログに追記
	if err := s.convRepo.BumpFeed(ctx, actor.Name, conversationID, nowUnix()); err != nil {
		return nil, fmt.Errorf("failed to bump feed: %w", err)
	}
	if err := s.convRepo.AppendStatus(ctx, conversationID, statusID); err != nil {
		return nil, fmt.Errorf("failed to append status: %w", err)
	}

	// 4. メンションの処理
	if err := s.processMentions(ctx, actor, conversationID, statusText); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordStatusPosted()
	}
	slog.Info("status posted",
		slog.String("user_name", actor.Name),
		slog.Int64("conversation_id", conversationID),
		slog.Int64("status_id", statusID),
		slog.Bool("created", created),
	)

	return &PostResult{ConversationID: conversationID, StatusID: statusID, Created: created}, nil
}

// processMentions は本文中のメンションにアクセス権を付与する。
// 登録済みユーザーには会話をフィードにも届ける。未登録の名前にも
// アクセス権エントリーを作る（その名前で登録した時点で会話が見える）。
func (s *Service) processMentions(ctx context.Context, actor *model.User, conversationID int64, statusText string) error {
	mentions := ExtractMentions(statusText)
	if len(mentions) == 0 {
		return nil
	}

	var unknown []string
	for _, name := range mentions {
		exists, err := s.userRepo.Exists(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to check mentioned user: %w", err)
		}

		if err := s.convRepo.GrantAccess(ctx, conversationID, name, nowUnix()); err != nil {
			return fmt.Errorf("failed to grant access to mention: %w", err)
		}
		if exists {
			if err := s.convRepo.BumpFeed(ctx, name, conversationID, nowUnix()); err != nil {
				return fmt.Errorf("failed to bump mentioned user feed: %w", err)
			}
		} else {
			unknown = append(unknown, name)
		}
	}

	s.notifyUnknownMentions(ctx, actor, unknown)
	return nil
}

// notifyUnknownMentions は未登録ユーザーへの招待通知を組み立てる。
// 実際のプロバイダーへの投稿はmentionNotificationsEnabledで無効化されている。
func (s *Service) notifyUnknownMentions(_ context.Context, actor *model.User, unknown []string) {
	if len(unknown) == 0 {
		return
	}

	var b strings.Builder
	for i, name := range unknown {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString("@")
		b.WriteString(name)
	}
	b.WriteString("  元芳,你怎么看?")

	if mentionNotificationsEnabled {
		// プロバイダーのstatuses/updateに投稿する実装がここに入る
		_ = b.String()
		return
	}

	slog.Debug("mention notification suppressed",
		slog.String("user_name", actor.Name),
		slog.Int("unknown_mentions", len(unknown)),
	)
}

// List はアクターのフィードを新しい順ではなく格納順（スコア昇順）で返す。
// sinceIDが0以外の場合はそのランクの直後から、count件（0以下は全件）返す。
func (s *Service) List(ctx context.Context, actorName string, sinceID, count int64) ([]*Summary, error) {
	ids, err := s.convRepo.FeedIDsAfter(ctx, actorName, sinceID, count)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed: %w", err)
	}

	summaries := make([]*Summary, 0, len(ids))
	for _, id := range ids {
		summary, err := s.buildSummary(ctx, id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// buildSummary は会話1件の非正規化フィールドを集める。
// 会話レコードが見つからない場合も空フィールドのまま返す。
func (s *Service) buildSummary(ctx context.Context, conversationID int64) (*Summary, error) {
	summary := &Summary{ConversationID: conversationID}

	conv, err := s.convRepo.Find(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}
	if conv != nil {
		summary.Status = conv.Status
		summary.UserName = conv.UserName
		summary.UpdatedTime = formatTimestamp(conv.UpdatedTime)
	}

	summary.ParticipantCount, err = s.convRepo.ParticipantCount(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}
	summary.LatestUsers, err = s.convRepo.Participants(ctx, conversationID, latestParticipantLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest participants: %w", err)
	}
	summary.StatusCount, err = s.convRepo.StatusCount(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to count statuses: %w", err)
	}

	if summary.UserName != "" {
		summary.User, err = s.userRepo.FindByName(ctx, summary.UserName)
		if err != nil {
			return nil, fmt.Errorf("failed to find conversation owner: %w", err)
		}
	}
	return summary, nil
}

// Show は会話詳細を返し、アクターの既読ウォーターマークを現在のステータス件数に進める。
// 会話レコードが見つからない場合も空フィールドの詳細を返す（エラーにしない）。
func (s *Service) Show(ctx context.Context, actorName string, conversationID, sinceID, count int64) (*Detail, error) {
	detail := &Detail{ConversationID: conversationID}

	conv, err := s.convRepo.Find(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}
	if conv != nil {
		detail.Status = conv.Status
		detail.UserName = conv.UserName
		detail.UpdatedTime = formatTimestamp(conv.UpdatedTime)
	}

	detail.ReadCount, err = s.convRepo.ReadCount(ctx, actorName, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to read watermark: %w", err)
	}
	detail.ParticipantCount, err = s.convRepo.ParticipantCount(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}
	detail.AllUsers, err = s.convRepo.Participants(ctx, conversationID, -1)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	detail.StatusCount, err = s.convRepo.StatusCount(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to count statuses: %w", err)
	}

	// 閲覧した時点の件数まで既読にする
	if err := s.convRepo.SetReadCount(ctx, actorName, conversationID, detail.StatusCount); err != nil {
		return nil, fmt.Errorf("failed to set watermark: %w", err)
	}

	statusIDs, err := s.convRepo.StatusIDsAfter(ctx, conversationID, sinceID, count)
	if err != nil {
		return nil, fmt.Errorf("failed to page status log: %w", err)
	}
	for _, statusID := range statusIDs {
		entry, err := s.buildStatusEntry(ctx, statusID)
		if err != nil {
			return nil, err
		}
		detail.Statuses = append(detail.Statuses, entry)
	}
	return detail, nil
}

func (s *Service) buildStatusEntry(ctx context.Context, statusID int64) (*StatusEntry, error) {
	entry := &StatusEntry{StatusID: statusID}

	status, err := s.statusRepo.FindByID(ctx, statusID)
	if err != nil {
		return nil, fmt.Errorf("failed to find status: %w", err)
	}
	if status == nil {
		return entry, nil
	}

	entry.Status = status.Text
	entry.UserName = status.UserName
	entry.CreatedTime = formatTimestamp(status.CreatedTime)

	if status.UserName != "" {
		entry.User, err = s.userRepo.FindByName(ctx, status.UserName)
		if err != nil {
			return nil, fmt.Errorf("failed to find status author: %w", err)
		}
	}
	return entry, nil
}

// formatTimestamp は浮動小数点のUnix秒をISO 8601風の文字列に整形する。
// ゼロ値（未設定）は空文字列を返す。
func formatTimestamp(ts float64) string {
	if ts == 0 {
		return ""
	}
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC().Format("2006-01-02T15:04:05") + "Z"
}

// nowUnix は現在時刻を浮動小数点のUnix秒で返す。
func nowUnix() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
