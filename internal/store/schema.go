package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	tableAnswerEvents     = "answer_events"
	tableSessionSummaries = "session_summaries"
	tableRewardStates     = "reward_states"
	tableChallenges       = "challenges"
	tableChallengeAnswers = "challenge_answers"
	tableLLMEvents        = "llm_request_events"
)

var (
	// AnswerEventsColumns holds the columns for the "answer_events" table.
	AnswerEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "user_id", Type: field.TypeString},
		{Name: "session_id", Type: field.TypeString},
		{Name: "question_id", Type: field.TypeString, Default: ""},
		{Name: "question_text", Type: field.TypeString},
		{Name: "operation", Type: field.TypeString},
		{Name: "question_index", Type: field.TypeInt, Default: 0},
		{Name: "raw_input", Type: field.TypeString},
		{Name: "normalized", Type: field.TypeString},
		{Name: "expected", Type: field.TypeString},
		{Name: "correct", Type: field.TypeBool},
		{Name: "time_ms", Type: field.TypeInt64, Default: 0},
		{Name: "tier", Type: field.TypeString},
		{Name: "xp", Type: field.TypeInt, Default: 0},
		{Name: "answered_at", Type: field.TypeInt64},
	}
	// AnswerEventsTable holds the schema information for the "answer_events" table.
	AnswerEventsTable = &schema.Table{
		Name:       tableAnswerEvents,
		Columns:    AnswerEventsColumns,
		PrimaryKey: []*schema.Column{AnswerEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "answerevent_user_id_sequence", Columns: []*schema.Column{AnswerEventsColumns[2], AnswerEventsColumns[1]}},
			{Name: "answerevent_session_id", Columns: []*schema.Column{AnswerEventsColumns[3]}},
		},
	}

	// SessionSummariesColumns holds the columns for the "session_summaries" table.
	SessionSummariesColumns = []*schema.Column{
		{Name: "session_id", Type: field.TypeString},
		{Name: "user_id", Type: field.TypeString},
		{Name: "mode", Type: field.TypeString},
		{Name: "score", Type: field.TypeInt},
		{Name: "total", Type: field.TypeInt},
		{Name: "percentage", Type: field.TypeInt},
		{Name: "letter_grade", Type: field.TypeString, Default: ""},
		{Name: "elapsed_ms", Type: field.TypeInt64, Default: 0},
		{Name: "xp_earned", Type: field.TypeInt, Default: 0},
		{Name: "best_streak", Type: field.TypeInt, Default: 0},
		{Name: "missed", Type: field.TypeString, Comment: "JSON array of missed answer events"},
		{Name: "ended_at", Type: field.TypeInt64},
	}
	// SessionSummariesTable holds the schema information for the "session_summaries" table.
	SessionSummariesTable = &schema.Table{
		Name:       tableSessionSummaries,
		Columns:    SessionSummariesColumns,
		PrimaryKey: []*schema.Column{SessionSummariesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "sessionsummary_user_id_ended_at", Columns: []*schema.Column{SessionSummariesColumns[1], SessionSummariesColumns[11]}},
		},
	}

	// RewardStatesColumns holds the columns for the "reward_states" table.
	// Level is derived from total_xp on read and never stored.
	RewardStatesColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString},
		{Name: "total_xp", Type: field.TypeInt, Default: 0},
		{Name: "daily_question_count", Type: field.TypeInt, Default: 0},
		{Name: "daily_goal", Type: field.TypeInt, Default: 0},
		{Name: "last_active_date", Type: field.TypeString, Default: ""},
	}
	// RewardStatesTable holds the schema information for the "reward_states" table.
	RewardStatesTable = &schema.Table{
		Name:       tableRewardStates,
		Columns:    RewardStatesColumns,
		PrimaryKey: []*schema.Column{RewardStatesColumns[0]},
	}

	// ChallengesColumns holds the columns for the "challenges" table.
	ChallengesColumns = []*schema.Column{
		{Name: "code", Type: field.TypeString, Size: 6},
		{Name: "creator_id", Type: field.TypeString},
		{Name: "opponent_id", Type: field.TypeString, Default: ""},
		{Name: "grade", Type: field.TypeString},
		{Name: "operations", Type: field.TypeString, Comment: "JSON array of operation tags"},
		{Name: "questions", Type: field.TypeString, Comment: "JSON array of the shared questions"},
		{Name: "question_count", Type: field.TypeInt},
		{Name: "status", Type: field.TypeString},
		{Name: "version", Type: field.TypeInt64, Default: 0, Comment: "Bumped on every change; subscribers poll it"},
		{Name: "created_at", Type: field.TypeInt64},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	// ChallengesTable holds the schema information for the "challenges" table.
	ChallengesTable = &schema.Table{
		Name:       tableChallenges,
		Columns:    ChallengesColumns,
		PrimaryKey: []*schema.Column{ChallengesColumns[0]},
	}

	// ChallengeAnswersColumns holds the columns for the "challenge_answers" table.
	ChallengeAnswersColumns = []*schema.Column{
		{Name: "code", Type: field.TypeString, Size: 6},
		{Name: "role", Type: field.TypeString},
		{Name: "question_index", Type: field.TypeInt},
		{Name: "raw", Type: field.TypeString, Default: ""},
		{Name: "value", Type: field.TypeString, Default: "null"},
		{Name: "correct", Type: field.TypeBool},
		{Name: "time_ms", Type: field.TypeInt64, Default: 0},
		{Name: "answered_at", Type: field.TypeInt64},
	}
	// ChallengeAnswersTable holds the schema information for the "challenge_answers" table.
	// The composite key makes a duplicate index for one role impossible.
	ChallengeAnswersTable = &schema.Table{
		Name:       tableChallengeAnswers,
		Columns:    ChallengeAnswersColumns,
		PrimaryKey: []*schema.Column{ChallengeAnswersColumns[0], ChallengeAnswersColumns[1], ChallengeAnswersColumns[2]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "challenge_answers_challenges_answers",
				Columns:    []*schema.Column{ChallengeAnswersColumns[0]},
				RefColumns: []*schema.Column{ChallengesColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}

	// LLMRequestEventsColumns holds the columns for the "llm_request_events" table.
	LLMRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Default: ""},
		{Name: "response_body", Type: field.TypeString, Default: ""},
		{Name: "created_at", Type: field.TypeInt64},
	}
	// LLMRequestEventsTable holds the schema information for the "llm_request_events" table.
	LLMRequestEventsTable = &schema.Table{
		Name:       tableLLMEvents,
		Columns:    LLMRequestEventsColumns,
		PrimaryKey: []*schema.Column{LLMRequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{LLMRequestEventsColumns[4]}},
			{Name: "llmrequestevent_success", Columns: []*schema.Column{LLMRequestEventsColumns[8]}},
		},
	}

	// GlobalSequenceColumns holds the columns for the "global_sequence" table.
	GlobalSequenceColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "next_val", Type: field.TypeInt64, Default: 1},
	}
	// GlobalSequenceTable holds the single counter row shared by the event tables.
	GlobalSequenceTable = &schema.Table{
		Name:       tableSequence,
		Columns:    GlobalSequenceColumns,
		PrimaryKey: []*schema.Column{GlobalSequenceColumns[0]},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		GlobalSequenceTable,
		AnswerEventsTable,
		SessionSummariesTable,
		RewardStatesTable,
		ChallengesTable,
		ChallengeAnswersTable,
		LLMRequestEventsTable,
	}
)

func init() {
	ChallengeAnswersTable.ForeignKeys[0].RefTable = ChallengesTable
}

// migrate creates missing tables and columns. It never drops anything.
func migrate(ctx context.Context, drv *entsql.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// sqlBuilder is the statement builder for every query in this package.
var sqlBuilder = entsql.Dialect(dialect.SQLite)
