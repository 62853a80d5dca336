/*
Package migration provides framework to test migration of the Membership
contract.

The contract stores tokens which can't be reissued, so data must survive any
update of the contract without loss. The package provides services of Neo
blockchain and the contract needed for testing. Test blockchain environment is
based on the storage dumps, either pulled from the remote blockchain instances
or prepared locally.
*/
package migration
