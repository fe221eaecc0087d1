/*
Package ledger implements the fee ledger accounting state machine.

Accounts deposit native currency to credit a receiver's withdrawable reserve.
Every deposit is charged with a fee configured by the ledger owner, collected
fees accumulate separately and are paid out to the owner on withdrawal.

Ledger does not know anything about the environment it runs in. Caller
identity and attached payment are passed explicitly, state lives in the
provided Store and currency is paid out through the provided Transferer. The
environment is responsible for serializing calls and for dropping all the
changes made by a call that returned an error.

# Storage model

Key-value storage format (the same one fee ledger contract uses):
  - 'owner' -> interop.Hash160
    ledger owner set on initialization
  - 'fee' -> int
    fee charged on every deposit, absent means zero
  - 'collectedFees' -> int
    fees not yet withdrawn by the owner, absent means zero
  - 'reserveForAddress' + interop.Hash160 -> int
    withdrawable reserve of the receiver, absent means zero

Integers are stored in NeoVM encoding. Zero values are never stored, the key
is deleted instead.
*/
package ledger
