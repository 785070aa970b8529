/*Package interval implements interval-union lookups over sets of genomic
  coordinates, typically loaded from BED files.
  (Note the 'union'.  Overlapping intervals are merged, not tracked
  separately.)
  It assumes every position fits in a PosType, which is currently defined as
  int32 since that's what BAM files are limited to.
*/
package interval
