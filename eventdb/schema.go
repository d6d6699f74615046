// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

// amount is a 32-byte big-endian blob, so blob ordering is numeric ordering.
const eventTableSchema = `
create table if not exists event (
	seq integer not null,
	eventIndex integer not null,
	name text not null,
	address blob(20) not null,
	subject blob(20) not null,
	amount blob(32),
	time integer not null,
	data text,
	primary key (seq, eventIndex)
);

CREATE INDEX if not exists addressIndex on event(address);
CREATE INDEX if not exists subjectIndex on event(subject);
CREATE INDEX if not exists nameIndex on event(name);
CREATE INDEX if not exists timeIndex on event(time);
`
