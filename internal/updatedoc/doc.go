// Package updatedoc builds the XML documents accepted by the remote update
// call.
//
// A document is a flat sequence of blocks under an <UPDATE> root. Each block
// is named after the dataset it touches (PERSON, PERNAVN, ...). A create block
// carries every field of a new row. A seek block first locates an existing
// row through SEEKFIELDS/SEEKVALUES and then carries only the fields to
// change.
//
// Rows that do not exist yet are referred to by document reference ids
// (P1, N3, A1, ...) written into their id column. Later blocks in the same
// document use the reference id as a foreign key; the remote system replaces
// it with the assigned id when it commits the document.
//
// Block order is preserved on output: parents must precede the blocks that
// refer to them.
package updatedoc
