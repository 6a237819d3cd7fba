/*
Package dump provides I/O operations for snapshots of the splitter ledger.

A snapshot consists of the ledger summary and raw storage items. It allows to
move ledger state between storage backends and to inspect it offline. Dumps
are stored in the file system using human-readable encoding.
*/
package dump
