package postgres

// Schema is applied by Migrate; every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS subscriptions (
  id                 BIGSERIAL PRIMARY KEY,
  account_id         BIGINT  NOT NULL,
  subscriber_id      BIGINT  NOT NULL,
  platform           INTEGER NOT NULL,
  group_id           BIGINT  NOT NULL DEFAULT 0,
  private            BOOLEAN NOT NULL DEFAULT false,
  arena_notice       BOOLEAN NOT NULL DEFAULT true,
  grand_arena_notice BOOLEAN NOT NULL DEFAULT true,
  up_notice          BOOLEAN NOT NULL DEFAULT false,
  online_notice      INTEGER NOT NULL DEFAULT 0,
  name               TEXT    NOT NULL DEFAULT '',
  UNIQUE (account_id, subscriber_id, platform)
);

CREATE TABLE IF NOT EXISTS group_features (
  platform INTEGER NOT NULL,
  group_id BIGINT  NOT NULL,
  enabled  BOOLEAN NOT NULL,
  PRIMARY KEY (platform, group_id)
);

CREATE TABLE IF NOT EXISTS arena_history (
  id            BIGSERIAL PRIMARY KEY,
  subscriber_id BIGINT  NOT NULL,
  account_id    BIGINT  NOT NULL,
  name          TEXT    NOT NULL,
  platform      INTEGER NOT NULL,
  date          BIGINT  NOT NULL,
  before        BIGINT  NOT NULL,
  after         BIGINT  NOT NULL,
  is_send       BOOLEAN NOT NULL,
  item          INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_history_account_date ON arena_history (platform, account_id, date DESC);
`
