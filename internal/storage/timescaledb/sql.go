package timescaledb

const createTableSQL = `CREATE TABLE IF NOT EXISTS room_snapshots (
	time          TIMESTAMPTZ      NOT NULL,
	room          TEXT             NOT NULL,
	mode          TEXT,
	outcome       TEXT,
	temperature   DOUBLE PRECISION,
	humidity      DOUBLE PRECISION,
	dew_point     DOUBLE PRECISION,
	vpd           DOUBLE PRECISION,
	ppfd          DOUBLE PRECISION,
	dli           DOUBLE PRECISION,
	co2           DOUBLE PRECISION,
	soil_moisture DOUBLE PRECISION,
	target_value  DOUBLE PRECISION,
	actions       TEXT
);`

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb;`

const createHypertableSQL = `SELECT create_hypertable('room_snapshots', 'time', if_not_exists => TRUE);`
