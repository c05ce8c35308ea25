package db

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    username      TEXT NOT NULL UNIQUE,
    full_name     TEXT NOT NULL DEFAULT '',
    role          TEXT NOT NULL CHECK (role IN ('admin','company','client')),
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS templates (
    id          TEXT PRIMARY KEY,
    company_id  TEXT NOT NULL REFERENCES profiles(id),
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    title_es    TEXT NOT NULL DEFAULT '',
    title_en    TEXT NOT NULL DEFAULT '',
    title_ar    TEXT NOT NULL DEFAULT '',
    subtitle_es TEXT NOT NULL DEFAULT '',
    subtitle_en TEXT NOT NULL DEFAULT '',
    subtitle_ar TEXT NOT NULL DEFAULT '',
    design      JSONB NOT NULL DEFAULT '{}'::jsonb,
    fields      JSONB NOT NULL DEFAULT '[]'::jsonb,
    is_active   BOOLEAN NOT NULL DEFAULT true,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_templates_company ON templates(company_id);
CREATE INDEX IF NOT EXISTS idx_templates_active ON templates(is_active);

CREATE TABLE IF NOT EXISTS submissions (
    id          TEXT PRIMARY KEY,
    template_id TEXT NOT NULL REFERENCES templates(id),
    client_id   TEXT NOT NULL REFERENCES profiles(id),
    status      TEXT NOT NULL DEFAULT 'pending'
                CHECK (status IN ('pending','reviewed','approved','rejected','signing','signed','error')),
    form_data   JSONB NOT NULL DEFAULT '{}'::jsonb,
    notes       TEXT NOT NULL DEFAULT '',
    reviewed_at TIMESTAMPTZ,
    reviewed_by TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),

    signature_transaction_id TEXT NOT NULL DEFAULT '',
    signature_status         TEXT NOT NULL DEFAULT '',
    signed_pdf_url           TEXT NOT NULL DEFAULT '',
    signed_at                TIMESTAMPTZ,
    signed_by                TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_submissions_template ON submissions(template_id);
CREATE INDEX IF NOT EXISTS idx_submissions_client ON submissions(client_id);
CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status);
CREATE INDEX IF NOT EXISTS idx_submissions_txn ON submissions(signature_transaction_id);

CREATE TABLE IF NOT EXISTS objects (
    bucket       TEXT NOT NULL,
    path         TEXT NOT NULL,
    content_type TEXT NOT NULL DEFAULT 'application/octet-stream',
    bytes        BYTEA NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (bucket, path)
);

CREATE TABLE IF NOT EXISTS idempotency_keys (
    scope           TEXT NOT NULL,
    idempotency_key TEXT NOT NULL,
    response_body   JSONB NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (scope, idempotency_key)
);
`
