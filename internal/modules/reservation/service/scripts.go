package service

import "github.com/redis/go-redis/v9"

// KEYS[1] счётчик стороны; ARGV[1] лимит, ARGV[2] ttl до конца дня
var reserveSideScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local limit = tonumber(ARGV[1])
if cur >= limit then
  return 0
end
redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], ARGV[2])
return 1
`)

// KEYS[1] счётчик стороны
var rollbackSideScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
if cur <= 0 then
  return 0
end
return redis.call('DECR', KEYS[1])
`)

// KEYS[1] дневной счётчик символа, KEYS[2] лок открытой позиции;
// ARGV[1] лимит в день, ARGV[2] ttl счётчика, ARGV[3] ttl лока
var reserveSymbolScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
if cur >= tonumber(ARGV[1]) then
  return {0, 'MAX_TRADES'}
end
if redis.call('EXISTS', KEYS[2]) == 1 then
  return {0, 'LOCKED'}
end
local ok = redis.call('SET', KEYS[2], '1', 'NX', 'EX', ARGV[3])
if not ok then
  return {0, 'LOCKED'}
end
redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], ARGV[2])
return {1, 'OK'}
`)

// KEYS[1] дневной счётчик символа, KEYS[2] лок
var rollbackSymbolScript = redis.NewScript(`
redis.call('DEL', KEYS[2])
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
if cur > 0 then
  redis.call('DECR', KEYS[1])
end
return 1
`)
