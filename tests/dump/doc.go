/*
Package dump reads and writes snapshots of deployed contracts: contract states
together with raw storage items taken at some block.

Snapshots of the live networks are committed to testdata/ and restored into
test chains by the migration tests, so new contract versions are checked
against real data before the update is rolled out.
*/
package dump
