/**
 * Database Schema.
 *
 * Defines the DDL statements for creating the relational database
 * structure: results, dns_history, devices. See spec.md §6.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package storage

// Schema contains the SQL statements to create the database tables.
const Schema = `
CREATE TABLE IF NOT EXISTS results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp TEXT NOT NULL,
    data TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_timestamp ON results(timestamp);

CREATE TABLE IF NOT EXISTS dns_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp TEXT NOT NULL,
    ip TEXT NOT NULL,
    hostname TEXT NOT NULL,
    blacklisted INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_dns_history_timestamp ON dns_history(timestamp);

CREATE TABLE IF NOT EXISTS devices (
    mac TEXT PRIMARY KEY,
    first_seen TEXT NOT NULL
);
`
