/*
Package cache remembers device names across scan sessions for the lifetime of a process.

Name resolution can take several seconds per device. A [NameCache] attached to a discovery
tracker lets a device that was named in an earlier scan show its name immediately when it is
rediscovered without one. The cache lives in memory only.
*/
package cache
