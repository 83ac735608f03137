package locate

// Hint is the visitor-facing explanation for a failed lookup. iOS Safari gets
// its own wording for the cases where the fix lives in Safari settings.
func Hint(kind ErrorKind, class DeviceClass) string {
	ios := class == IOSSafari
	switch kind {
	case PermissionDenied:
		if ios {
			return `Safari дээр байршил зөвшөөрөх шаардлагатай. Тохиргоо → Safari → Байршил → "Зөвшөөрөх" гэж сонгоно уу. Эсвэл доорх дүүргээ сонгоно уу.`
		}
		return "Байршил зөвшөөрөх шаардлагатай. Хөтчийн тохиргооноос байршлыг идэвхжүүлнэ үү. Эсвэл доорх дүүргээ сонгоно уу."
	case PositionUnavailable:
		return "Байршил олдохгүй байна. GPS эсвэл интернет холболтоо шалгаад дахин оролдоно уу. Эсвэл доорх дүүргээ сонгоно уу."
	case Timeout:
		if ios {
			return "Safari дээр байршил хүлээх хугацаа дууссан. Доорх дүүргээ сонгоно уу."
		}
		return "Байршил хүлээх хугацаа дууссан. Доорх дүүргээ сонгоно уу."
	case Unsupported:
		return "Таны төхөөрөмж байршил тодорхойлохыг дэмжихгүй байна. Дүүргээ гараар сонгоно уу."
	default:
		return "Байршил тодорхойлоход алдаа гарлаа. Доорх дүүргээ сонгоно уу."
	}
}
