package redisstore

import "github.com/redis/go-redis/v9"

// Script replies. Positive values are the new version.
const (
	replyNotFound  = -1
	replyRejected  = -2
	replyNotActive = -3
	replyOutOfOrd  = -4
)

// createScript inserts the challenge hash unless the code is taken.
// KEYS[1] hash; ARGV ttl ms followed by field/value pairs.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
local ttl = tonumber(ARGV[1])
for i = 2, #ARGV, 2 do
  redis.call('HSET', KEYS[1], ARGV[i], ARGV[i + 1])
end
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
end
return 1
`)

// joinScript claims the opponent seat.
// KEYS[1] hash; ARGV opponent id, updated_at ms, ttl ms.
var joinScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
local f = redis.call('HMGET', KEYS[1], 'status', 'opponent_id', 'creator_id')
if f[1] ~= 'waiting' or (f[2] and f[2] ~= '') or f[3] == ARGV[1] then
  return -2
end
redis.call('HSET', KEYS[1], 'opponent_id', ARGV[1], 'status', 'active', 'updated_at', ARGV[2])
local v = redis.call('HINCRBY', KEYS[1], 'version', 1)
if tonumber(ARGV[3]) > 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[3])
end
return v
`)

// appendScript pushes one answer when its index is the next one.
// KEYS[1] hash, KEYS[2] role answer list; ARGV index, answer JSON,
// updated_at ms, ttl ms.
var appendScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
local f = redis.call('HMGET', KEYS[1], 'status', 'question_count')
if f[1] ~= 'active' then
  return -3
end
local idx = tonumber(ARGV[1])
if idx ~= redis.call('LLEN', KEYS[2]) or idx >= tonumber(f[2]) then
  return -4
end
redis.call('RPUSH', KEYS[2], ARGV[2])
redis.call('HSET', KEYS[1], 'updated_at', ARGV[3])
local v = redis.call('HINCRBY', KEYS[1], 'version', 1)
local ttl = tonumber(ARGV[4])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
  redis.call('PEXPIRE', KEYS[2], ttl)
end
return v
`)

// completeScript flips an active challenge to completed once both lists are
// full. Returns 0 when nothing changed.
// KEYS[1] hash, KEYS[2] creator list, KEYS[3] opponent list; ARGV updated_at ms.
var completeScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
local f = redis.call('HMGET', KEYS[1], 'status', 'question_count')
local n = tonumber(f[2])
if f[1] ~= 'active' or n == 0 then
  return 0
end
if redis.call('LLEN', KEYS[2]) < n or redis.call('LLEN', KEYS[3]) < n then
  return 0
end
redis.call('HSET', KEYS[1], 'status', 'completed', 'updated_at', ARGV[1])
return redis.call('HINCRBY', KEYS[1], 'version', 1)
`)
