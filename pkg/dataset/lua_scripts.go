// pkg/dataset/lua_scripts.go

package dataset

// scriptSearch filters the item list by a plain substring of title, content
// or author and returns {total matches, requested page of raw items}.
const scriptSearch = `
local items = redis.call('LRANGE', KEYS[1], 0, -1)
local kw = ARGV[1]
local start = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local total = 0
local page = {}
for _, raw in ipairs(items) do
    local ok = kw == ''
    if not ok then
        local it = cjson.decode(raw)
        ok = (type(it.title) == 'string' and string.find(it.title, kw, 1, true) ~= nil)
            or (type(it.content) == 'string' and string.find(it.content, kw, 1, true) ~= nil)
            or (type(it.author) == 'string' and string.find(it.author, kw, 1, true) ~= nil)
    end
    if ok then
        if total >= start and total < start + limit then
            page[#page + 1] = raw
        end
        total = total + 1
    end
end
return {total, page}
`
